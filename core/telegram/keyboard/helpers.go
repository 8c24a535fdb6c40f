package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// Layout splits a flat list of buttons into rows of the given sizes.
// Buttons left over once sizes are exhausted go one per row.
func Layout(buttons []InlineBtn, sizes ...int) [][]InlineBtn {
	rows := make([][]InlineBtn, 0, len(sizes))
	rest := buttons
	for _, n := range sizes {
		if len(rest) == 0 {
			break
		}
		if n <= 0 {
			continue
		}
		if n > len(rest) {
			n = len(rest)
		}
		rows = append(rows, rest[:n:n])
		rest = rest[n:]
	}
	for _, b := range rest {
		rows = append(rows, []InlineBtn{b})
	}
	return rows
}
