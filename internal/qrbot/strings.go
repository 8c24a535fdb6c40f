package qrbot

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/uthef/QrBot/internal/barcode"
)

// Localization keys. Command descriptions are stored in the command table as keys
// and resolved per request.
const (
	keyInvalidImage        = "invalid_image"
	keyTextTooLong         = "text_too_long"
	keyTextExpected        = "text_expected"
	keyUnableToDecode      = "unable_to_decode"
	keyDecodedText         = "decoded_text"
	keySelectedColor       = "selected_color"
	keyImageCaption        = "image_caption"
	keyScanRequest         = "scan_request"
	keyDataRequest         = "data_request"
	keyColorRequest        = "color_request"
	keyAvailableCommands   = "available_commands"
	keyStartDescription    = "start_description"
	keyGenerateDescription = "gen_qr_description"
	keyScanDescription     = "scan_description"
	keyContact             = "contact"
)

// Languages holds the locales the bot publishes its command menu in.
// The first entry is the fallback.
var Languages = []language.Tag{language.English, language.Russian}

var matcher = language.NewMatcher(Languages)

var catalog = map[string][2]string{
	keyInvalidImage: {
		"A single *compressed* image is expected. Try again",
		"Принимается только *сжатое* изображение. Попробуйте снова",
	},
	keyTextTooLong: {
		"The text length must not exceed %d characters. Send /gen_qr to try again",
		"Длина текста не должна превышать %d символов. Отправьте /gen_qr, чтобы попробовать снова",
	},
	keyTextExpected: {
		"A text message is expected. Try again",
		"Принимается только текстовое сообщение. Попробуйте ещё раз",
	},
	keyUnableToDecode: {
		"Sorry, I'm unable to decode this image. Send /scan to try another one",
		"Извините, считать данные с этого изображения не получилось. Отправьте /scan, чтобы попробовать другое",
	},
	keyDecodedText: {
		"Decoded text\n\n%s",
		"Раскодированный текст\n\n%s",
	},
	keySelectedColor: {
		"Selected color: *%s*",
		"Выбранный цвет: *%s*",
	},
	keyImageCaption:        {"Your QR code is ready!", "Ваш QR-код готов!"},
	keyScanRequest:         {"Send me an image containing QR code or barcode", "Отправьте изображение с QR-кодом или штрих-кодом"},
	keyDataRequest:         {"Enter QR code data", "Введите текст"},
	keyColorRequest:        {"Select color scheme", "Выберите цветовую схему"},
	keyAvailableCommands:   {"Here is the list of all available commands", "Вот список всех доступных команд"},
	keyStartDescription:    {"List available commands", "Вывести список доступных команд"},
	keyGenerateDescription: {"Generate a new QR code image", "Сгенерировать новый QR-код"},
	keyScanDescription:     {"Scan QR code or barcode image", "Считать данные с QR-кода или штрих-кода"},
	keyContact:             {"Contact the developer: @uthef", "Связаться с разработчиком: @uthef"},

	colorKey(barcode.BlackOnWhite): {"🔳 Black on white", "🔳 Чёрный на белом"},
	colorKey(barcode.WhiteOnBlack): {"🔲 White on black", "🔲 Белый на чёрном"},
	colorKey(barcode.Red):          {"🟥 Red", "🟥 Красный"},
	colorKey(barcode.Green):        {"🟩 Green", "🟩 Зелёный"},
	colorKey(barcode.Blue):         {"🟦 Blue", "🟦 Синий"},
	colorKey(barcode.Yellow):       {"🟨 Yellow", "🟨 Жёлтый"},
	colorKey(barcode.Orange):       {"🟧 Orange", "🟧 Оранжевый"},
	colorKey(barcode.Purple):       {"🟪 Purple", "🟪 Фиолетовый"},
}

func colorKey(s barcode.Scheme) string { return "color." + string(s) }

// langIndex maps a client language code onto a catalog column.
func langIndex(code string) int {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0
	}
	tag, err := language.Parse(code)
	if err != nil {
		return 0
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return 0
	}
	return idx
}

// localize returns the string for key in lang. Unknown keys are returned as is.
func localize(lang, key string) string {
	row, ok := catalog[key]
	if !ok {
		return key
	}
	return row[langIndex(lang)]
}

func localizef(lang, key string, args ...any) string {
	return fmt.Sprintf(localize(lang, key), args...)
}

// Localizer binds localize to one language for the command table.
func Localizer(lang string) func(key string) string {
	return func(key string) string { return localize(lang, key) }
}
