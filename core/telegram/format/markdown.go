// Package format escapes user-visible text for Telegram parse modes.
package format

import (
	"regexp"

	tele "gopkg.in/telebot.v4"
)

var (
	markdownV1 = regexp.MustCompile("([_*`\\[])")
	markdownV2 = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!\\])`)
)

// Escape makes text safe to embed in a message sent with mode.
// Text sent without a parse mode is returned unchanged.
func Escape(text string, mode tele.ParseMode) string {
	switch mode {
	case tele.ModeMarkdown:
		return markdownV1.ReplaceAllString(text, `\$1`)
	case tele.ModeMarkdownV2:
		return markdownV2.ReplaceAllString(text, `\$1`)
	}
	return text
}
