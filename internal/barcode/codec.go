// Package barcode renders QR codes and reads QR codes and common 1D barcodes.
package barcode

import (
	"errors"

	"github.com/rivo/uniseg"
)

const (
	DefaultImageSize     = 512
	DefaultMargin        = 1
	DefaultMaxTextLength = 512
)

var (
	// ErrTextTooLong is returned when the text exceeds the grapheme limit.
	ErrTextTooLong = errors.New("barcode: text too long")
	// ErrEmptyText is returned for empty input.
	ErrEmptyText = errors.New("barcode: empty text")
)

// Options control rendering. Zero values fall back to the defaults.
type Options struct {
	Width  int
	Height int
	// Margin is the quiet zone in modules.
	Margin        int
	MaxTextLength int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultImageSize
	}
	if o.Height <= 0 {
		o.Height = o.Width
	}
	if o.Margin < 0 {
		o.Margin = DefaultMargin
	}
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = DefaultMaxTextLength
	}
	return o
}

// Codec encodes text into PNG images and decodes codes found in images.
type Codec interface {
	Encode(text string, scheme Scheme, opts Options) ([]byte, error)
	// Decode reports ok=false when the image holds no readable code.
	Decode(image []byte) (text string, ok bool, err error)
}

// TextLength counts user-perceived characters.
func TextLength(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// CheckText validates text against the grapheme limit.
func CheckText(text string, limit int) error {
	if text == "" {
		return ErrEmptyText
	}
	if limit <= 0 {
		limit = DefaultMaxTextLength
	}
	if TextLength(text) > limit {
		return ErrTextTooLong
	}
	return nil
}

// ZXing implements Codec with go-qrcode for rendering and gozxing for reading.
type ZXing struct{}

// New returns the default codec.
func New() *ZXing { return &ZXing{} }

var _ Codec = (*ZXing)(nil)
