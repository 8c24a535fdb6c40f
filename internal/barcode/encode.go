package barcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// Encode renders text as a PNG QR code of opts.Width x opts.Height pixels with
// a quiet zone of opts.Margin modules. Modules are scaled by a whole factor and
// centered.
func (z *ZXing) Encode(text string, scheme Scheme, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	if err := CheckText(text, opts.MaxTextLength); err != nil {
		return nil, err
	}

	q, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return nil, fmt.Errorf("barcode: encode: %w", err)
	}
	q.DisableBorder = true
	fg, bg := scheme.Colors()
	q.ForegroundColor, q.BackgroundColor = fg, bg

	img := render(q.Bitmap(), opts, fg, bg)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("barcode: png: %w", err)
	}
	return buf.Bytes(), nil
}

func render(modules [][]bool, opts Options, fg, bg color.Color) image.Image {
	img := image.NewPaletted(image.Rect(0, 0, opts.Width, opts.Height), color.Palette{bg, fg})
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	n := len(modules)
	total := n + 2*opts.Margin
	if n == 0 || total == 0 {
		return img
	}
	side := min(opts.Width, opts.Height)
	scale := max(side/total, 1)
	offX := (opts.Width-scale*total)/2 + opts.Margin*scale
	offY := (opts.Height-scale*total)/2 + opts.Margin*scale

	dark := image.NewUniform(fg)
	for y, row := range modules {
		for x, on := range row {
			if !on {
				continue
			}
			r := image.Rect(offX+x*scale, offY+y*scale, offX+(x+1)*scale, offY+(y+1)*scale)
			draw.Draw(img, r, dark, image.Point{}, draw.Src)
		}
	}
	return img
}
