package barcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrUnsupportedImage is returned when the bytes are not a known image format.
var ErrUnsupportedImage = errors.New("barcode: unsupported image")

func readers() []gozxing.Reader {
	return []gozxing.Reader{
		qrcode.NewQRCodeReader(),
		oned.NewCode128Reader(),
		oned.NewEAN13Reader(),
		oned.NewEAN8Reader(),
	}
}

// Decode reads the first QR code or 1D barcode found in data. Light-on-dark
// codes are retried on the inverted image.
func (z *ZXing) Decode(data []byte) (string, bool, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	src := gozxing.NewLuminanceSourceFromImage(img)
	for _, s := range []gozxing.LuminanceSource{src, src.Invert()} {
		if text, ok := decodeSource(s); ok {
			return text, true, nil
		}
	}
	return "", false, nil
}

func decodeSource(src gozxing.LuminanceSource) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(src))
	if err != nil {
		return "", false
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	for _, r := range readers() {
		res, err := r.Decode(bmp, hints)
		if err == nil && res != nil {
			return res.GetText(), true
		}
		r.Reset()
	}
	return "", false
}
