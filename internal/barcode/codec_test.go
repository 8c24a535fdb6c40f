package barcode

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
)

func TestParseScheme(t *testing.T) {
	if s, ok := ParseScheme("WhiteOnBlack"); !ok || s != WhiteOnBlack {
		t.Fatalf("ParseScheme = %q, %v", s, ok)
	}
	if _, ok := ParseScheme("pink"); ok {
		t.Fatal("unknown scheme accepted")
	}
	if len(Schemes) != 8 {
		t.Fatalf("schemes = %d", len(Schemes))
	}
	for _, s := range Schemes {
		if _, ok := palettes[s]; !ok {
			t.Fatalf("scheme %s has no palette", s)
		}
	}
}

func TestTextLengthCountsGraphemes(t *testing.T) {
	if n := TextLength("👍🏽👨‍👩‍👧"); n != 2 {
		t.Fatalf("TextLength = %d, want 2", n)
	}
	flag := strings.Repeat("🇺🇦", 512)
	if err := CheckText(flag, 512); err != nil {
		t.Fatalf("512 flags should fit: %v", err)
	}
	if err := CheckText(flag+"x", 512); !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("err = %v, want ErrTextTooLong", err)
	}
	if err := CheckText("", 512); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
}

func TestEncodeProducesSizedPNG(t *testing.T) {
	data, err := New().Encode("hello", Red, Options{Width: 300, Margin: 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 300 {
		t.Fatalf("bounds = %v", b)
	}
	_, bg := Red.Colors()
	r1, g1, b1, _ := img.At(0, 0).RGBA()
	r2, g2, b2, _ := bg.RGBA()
	if r1 != r2 || g1 != g2 || b1 != b2 {
		t.Fatal("corner pixel should use the scheme background")
	}
}

func TestEncodeRejectsLongText(t *testing.T) {
	_, err := New().Encode(strings.Repeat("a", 513), BlackOnWhite, Options{})
	if !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("err = %v, want ErrTextTooLong", err)
	}
}

func TestRoundTrip(t *testing.T) {
	codec := New()
	for _, scheme := range []Scheme{BlackOnWhite, WhiteOnBlack, Blue} {
		data, err := codec.Encode("https://example.org/?q=42", scheme, Options{Margin: DefaultMargin})
		if err != nil {
			t.Fatalf("%s: encode: %v", scheme, err)
		}
		text, ok, err := codec.Decode(data)
		if err != nil || !ok {
			t.Fatalf("%s: decode = %q, %v, %v", scheme, text, ok, err)
		}
		if text != "https://example.org/?q=42" {
			t.Fatalf("%s: decoded %q", scheme, text)
		}
	}
}

func TestDecodeBlankImage(t *testing.T) {
	var buf bytes.Buffer
	img := render(nil, Options{Width: 64, Height: 64}, black, white)
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	if _, ok, err := New().Decode(buf.Bytes()); ok || err != nil {
		t.Fatalf("blank image decoded: ok=%v err=%v", ok, err)
	}
	if _, _, err := New().Decode([]byte("not an image")); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("err = %v, want ErrUnsupportedImage", err)
	}
}
