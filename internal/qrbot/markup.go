package qrbot

import (
	"github.com/uthef/QrBot/core/telegram/keyboard"
	"github.com/uthef/QrBot/internal/barcode"
)

// colorUnique tags the color scheme buttons; the scheme name travels as data.
const colorUnique = "color"

// colorKeyboard lays out the scheme buttons as 2, 3 and 3 per row.
func colorKeyboard(lang string) [][]keyboard.InlineBtn {
	btns := make([]keyboard.InlineBtn, 0, len(barcode.Schemes))
	for _, s := range barcode.Schemes {
		btns = append(btns, keyboard.InlineBtn{
			Text:   localize(lang, colorKey(s)),
			Unique: colorUnique,
			Data:   string(s),
		})
	}
	return keyboard.Layout(btns, 2, 3, 3)
}
