package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/eduoppbot/eduoppbot/model"
)

const discordAPIBase = "https://discord.com/api/v10"

// DiscordChannel delivers direct messages through the Discord REST API: a
// DM channel is opened for the recipient user id, then the message is
// posted into it.
type DiscordChannel struct {
	token   string
	apiBase string
	client  *http.Client
}

// NewDiscordChannel builds a Discord channel; an empty token leaves the
// channel unconfigured
func NewDiscordChannel(token string) *DiscordChannel {
	return &DiscordChannel{
		token:   token,
		apiBase: discordAPIBase,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *DiscordChannel) Kind() model.Platform { return model.PlatformDiscord }

func (d *DiscordChannel) Configured() bool { return d.token != "" }

// Start validates the bot token. Inbound traffic arrives via webhook, so
// there is no polling loop to run.
func (d *DiscordChannel) Start() error {
	if !d.Configured() {
		log.Println("Warning: Discord bot token not configured, channel disabled")
		return nil
	}

	req, err := http.NewRequest(http.MethodGet, d.apiBase+"/users/@me", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord token check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord token rejected with status %d", resp.StatusCode)
	}

	log.Println("Discord channel started")
	return nil
}

func (d *DiscordChannel) Stop() error { return nil }

// Send opens (or reuses) the DM channel for the user id and posts text
func (d *DiscordChannel) Send(ctx context.Context, recipient, text string) error {
	if !d.Configured() {
		return ErrChannelUnavailable
	}

	channelID, err := d.openDMChannel(ctx, recipient)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/channels/%s/messages", d.apiBase, channelID)
	return d.post(ctx, url, payload, nil)
}

func (d *DiscordChannel) openDMChannel(ctx context.Context, userID string) (string, error) {
	payload, err := json.Marshal(map[string]string{"recipient_id": userID})
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := d.post(ctx, d.apiBase+"/users/@me/channels", payload, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("discord returned no DM channel id for user %s", userID)
	}
	return created.ID, nil
}

func (d *DiscordChannel) post(ctx context.Context, url string, payload []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil {
			return json.Unmarshal(body, out)
		}
		return nil
	}

	reqErr := fmt.Errorf("discord %s returned %d: %s", url, resp.StatusCode, string(body))
	// Unknown users and closed DMs are not retryable
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
		return Permanent(reqErr)
	}
	return reqErr
}
