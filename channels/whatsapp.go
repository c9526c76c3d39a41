package channels

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/eduoppbot/eduoppbot/model"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
)

// WhatsAppChannel sends through the Twilio WhatsApp API. Unlike the other
// platforms its webhook is synchronous: the reply travels back in the HTTP
// response body as TwiML, built by Reply.
type WhatsAppChannel struct {
	accountSID  string
	authToken   string
	phoneNumber string
	client      *twilio.RestClient
}

// NewWhatsAppChannel builds a WhatsApp channel; missing credentials leave
// the channel unconfigured
func NewWhatsAppChannel(accountSID, authToken, phoneNumber string) *WhatsAppChannel {
	return &WhatsAppChannel{
		accountSID:  accountSID,
		authToken:   authToken,
		phoneNumber: phoneNumber,
	}
}

func (w *WhatsAppChannel) Kind() model.Platform { return model.PlatformWhatsApp }

func (w *WhatsAppChannel) Configured() bool {
	return w.accountSID != "" && w.authToken != "" && w.phoneNumber != ""
}

// Start initializes the Twilio REST client, or skips the channel with a
// warning when credentials are missing
func (w *WhatsAppChannel) Start() error {
	if !w.Configured() {
		log.Println("Warning: WhatsApp credentials not configured, channel disabled")
		return nil
	}

	w.client = twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: w.accountSID,
		Password: w.authToken,
	})
	w.client.SetTimeout(15 * time.Second)

	log.Println("WhatsApp channel started")
	return nil
}

func (w *WhatsAppChannel) Stop() error {
	w.client = nil
	return nil
}

// Send delivers text to a WhatsApp number through Twilio
func (w *WhatsAppChannel) Send(ctx context.Context, recipient, text string) error {
	if w.client == nil {
		return ErrChannelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetBody(text)
	params.SetFrom("whatsapp:" + w.phoneNumber)
	params.SetTo("whatsapp:" + recipient)

	_, err := w.client.Api.CreateMessage(params)
	if err != nil {
		sendErr := fmt.Errorf("twilio send to %s failed: %w", recipient, err)
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status >= 400 && restErr.Status < 500 {
			return Permanent(sendErr)
		}
		return sendErr
	}
	return nil
}

// Reply maps an inbound message body to a TwiML response document. The
// webhook handler must return it verbatim as the HTTP response.
func (w *WhatsAppChannel) Reply(body string) (string, error) {
	message := &twiml.MessagingMessage{Body: CommandReply(body)}
	return twiml.Messages([]twiml.Element{message})
}
