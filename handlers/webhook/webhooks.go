package webhook

import (
	"log"

	"github.com/eduoppbot/eduoppbot/channels"
	"github.com/eduoppbot/eduoppbot/utils/response"
	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives inbound platform callbacks. Telegram and Discord
// traffic is acknowledged only (both bots consume updates over their own
// connections); WhatsApp is the exception and gets a synchronous TwiML reply.
type WebhookHandler struct {
	whatsapp *channels.WhatsAppChannel
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(whatsapp *channels.WhatsAppChannel) *WebhookHandler {
	return &WebhookHandler{whatsapp: whatsapp}
}

// Telegram handles POST /api/v1/webhooks/telegram. Telegram only needs the
// 200; updates are consumed by the polling loop.
func (h *WebhookHandler) Telegram(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Discord handles POST /api/v1/webhooks/discord
func (h *WebhookHandler) Discord(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// WhatsApp handles POST /api/v1/webhooks/whatsapp. Twilio posts the inbound
// message as form fields and expects TwiML in the response body.
func (h *WebhookHandler) WhatsApp(c *fiber.Ctx) error {
	from := c.FormValue("From")
	body := c.FormValue("Body")
	log.Printf("WhatsApp message from %s: %s", from, body)

	twiml, err := h.whatsapp.Reply(body)
	if err != nil {
		return response.InternalServerError(c, "Failed to build reply")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXML)
	return c.SendString(twiml)
}
