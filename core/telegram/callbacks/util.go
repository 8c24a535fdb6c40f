package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseData splits Telebot's \f<unique>|<payload> encoding into unique and payload.
// A plain payload without the unique prefix yields an empty unique.
func ParseData(raw string) (string, string) {
	raw = strings.TrimPrefix(raw, "\f")
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) == 1 {
		return "", strings.TrimSpace(parts[0])
	}
	return strings.TrimSpace(parts[0]), parts[1]
}

// ParseCallbackData returns unique and payload of cb, preferring the already
// extracted cb.Unique when telebot matched a registered button.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseData(cb.Data)
}
