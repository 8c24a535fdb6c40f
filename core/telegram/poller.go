package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// allowedUpdates limits delivery to what the router consumes.
var allowedUpdates = []string{"message", "callback_query"}

// BuildPoller returns the long poller used in longpoll mode.
func BuildPoller(timeoutSeconds int) tele.Poller {
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultLongPollTimeout
	}
	return &tele.LongPoller{Timeout: timeout, AllowedUpdates: allowedUpdates}
}

// WebhookOptions declares how a bot registers its webhook.
type WebhookOptions struct {
	// URL is the public base URL; the bot path is appended to it.
	URL         string
	SecretToken string
	DropPending bool
}

// BuildWebhook describes the webhook Telegram should call for token.
func BuildWebhook(token string, opts WebhookOptions) *tele.Webhook {
	return &tele.Webhook{
		SecretToken:    opts.SecretToken,
		DropUpdates:    opts.DropPending,
		AllowedUpdates: allowedUpdates,
		Endpoint:       &tele.WebhookEndpoint{PublicURL: WebhookURL(opts.URL, token)},
	}
}

// WebhookURL joins the public base URL with the per-bot path.
func WebhookURL(base, token string) string {
	return strings.TrimRight(base, "/") + "/bot/" + token
}
