package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/eduoppbot/eduoppbot/model"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramChannel talks to the Telegram Bot API over HTTP. Start launches a
// long-poll loop that answers inbound commands; Send posts a message to a
// chat id.
type TelegramChannel struct {
	token   string
	apiBase string
	client  *http.Client

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewTelegramChannel builds a Telegram channel; an empty token leaves the
// channel unconfigured
func NewTelegramChannel(token string) *TelegramChannel {
	return &TelegramChannel{
		token:   token,
		apiBase: telegramAPIBase,
		// Long polls hold the connection open for up to 30s
		client: &http.Client{Timeout: 40 * time.Second},
	}
}

func (t *TelegramChannel) Kind() model.Platform { return model.PlatformTelegram }

func (t *TelegramChannel) Configured() bool { return t.token != "" }

// Start begins the update polling loop, or skips the channel with a
// warning when no token is configured
func (t *TelegramChannel) Start() error {
	if !t.Configured() {
		log.Println("Warning: Telegram bot token not configured, channel disabled")
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}
	t.started = true
	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	go t.pollUpdates()
	log.Println("Telegram channel started")
	return nil
}

// Stop ends the polling loop; safe to call when Start never ran
func (t *TelegramChannel) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return nil
	}
	close(t.stop)
	<-t.done
	t.started = false
	log.Println("Telegram channel stopped")
	return nil
}

// Send posts a Markdown message to the given chat id
func (t *TelegramChannel) Send(ctx context.Context, recipient, text string) error {
	if !t.Configured() {
		return ErrChannelUnavailable
	}
	return t.sendMessage(ctx, recipient, text)
}

type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

type telegramUpdatesResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

func (t *TelegramChannel) pollUpdates() {
	defer close(t.done)

	var offset int64
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		updates, err := t.getUpdates(offset)
		if err != nil {
			log.Printf("Telegram getUpdates failed: %v", err)
			select {
			case <-t.stop:
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			chatID := fmt.Sprintf("%d", u.Message.Chat.ID)
			reply := CommandReply(u.Message.Text)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := t.sendMessage(ctx, chatID, reply); err != nil {
				log.Printf("Telegram reply to chat %s failed: %v", chatID, err)
			}
			cancel()
		}
	}
}

func (t *TelegramChannel) getUpdates(offset int64) ([]telegramUpdate, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?timeout=30&offset=%d", t.apiBase, t.token, offset)
	resp, err := t.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed telegramUpdatesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram getUpdates returned not ok: %s", string(body))
	}
	return parsed.Result, nil
}

func (t *TelegramChannel) sendMessage(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	sendErr := fmt.Errorf("telegram sendMessage to %s returned %d: %s", chatID, resp.StatusCode, string(body))
	// 400/403 cover unknown chat ids and users who blocked the bot
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden {
		return Permanent(sendErr)
	}
	return sendErr
}
