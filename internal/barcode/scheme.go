package barcode

import (
	"image/color"
	"strings"
)

// Scheme is a named foreground/background pair for generated codes.
type Scheme string

const (
	BlackOnWhite Scheme = "blackOnWhite"
	WhiteOnBlack Scheme = "whiteOnBlack"
	Red          Scheme = "red"
	Green        Scheme = "green"
	Blue         Scheme = "blue"
	Yellow       Scheme = "yellow"
	Orange       Scheme = "orange"
	Purple       Scheme = "purple"
)

// Schemes lists every scheme in keyboard order.
var Schemes = []Scheme{BlackOnWhite, WhiteOnBlack, Red, Green, Blue, Yellow, Orange, Purple}

var (
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black = color.RGBA{A: 0xff}
)

type palette struct {
	fg, bg color.RGBA
}

var palettes = map[Scheme]palette{
	BlackOnWhite: {fg: black, bg: white},
	WhiteOnBlack: {fg: white, bg: black},
	Red:          {fg: white, bg: color.RGBA{R: 0x8b, A: 0xff}},
	Green:        {fg: white, bg: color.RGBA{G: 0x64, A: 0xff}},
	Blue:         {fg: white, bg: color.RGBA{B: 0x8b, A: 0xff}},
	Yellow:       {fg: black, bg: color.RGBA{R: 0xff, G: 0xd7, A: 0xff}},
	Orange:       {fg: white, bg: color.RGBA{R: 0xcc, G: 0x55, A: 0xff}},
	Purple:       {fg: white, bg: color.RGBA{R: 0x80, B: 0x80, A: 0xff}},
}

// ParseScheme resolves a scheme name case-insensitively.
func ParseScheme(name string) (Scheme, bool) {
	name = strings.TrimSpace(name)
	for _, s := range Schemes {
		if strings.EqualFold(string(s), name) {
			return s, true
		}
	}
	return "", false
}

// Colors returns the module and background colors. Unknown schemes render black on white.
func (s Scheme) Colors() (fg, bg color.Color) {
	p, ok := palettes[s]
	if !ok {
		p = palettes[BlackOnWhite]
	}
	return p.fg, p.bg
}
