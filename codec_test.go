package pyjamaz

import "testing"

func TestSniffFormat(t *testing.T) {
	img := makeTestImage(16, 16)

	if f := sniffFormat(encodeJPEGBytes(img, 90)); f != FormatJPEG {
		t.Fatalf("expected FormatJPEG, got %v", f)
	}
	if f := sniffFormat(encodePNGBytes(img)); f != FormatPNG {
		t.Fatalf("expected FormatPNG, got %v", f)
	}
	if f := sniffFormat([]byte("not an image")); f != FormatUnknown {
		t.Fatalf("expected FormatUnknown for garbage input, got %v", f)
	}
	if f := sniffFormat(nil); f != FormatUnknown {
		t.Fatalf("expected FormatUnknown for nil input, got %v", f)
	}
}

func TestIsAVIFBoxStream(t *testing.T) {
	valid := append([]byte{0, 0, 0, 0x20}, []byte("ftypavif")...)
	if !isAVIFBoxStream(valid) {
		t.Fatal("expected a well-formed ftyp/avif box to be recognized")
	}
	if isAVIFBoxStream([]byte("too short")) {
		t.Fatal("short input should not be recognized as an AVIF box stream")
	}
}

func TestQualityRangeAndAlphaSupport(t *testing.T) {
	if lo, hi := qualityRange(FormatJPEG); lo != 1 || hi != 100 {
		t.Fatalf("JPEG: expected range [1,100], got [%d,%d]", lo, hi)
	}
	for _, f := range []Format{FormatWebP, FormatAVIF} {
		lo, hi := qualityRange(f)
		if lo != 0 || hi != 100 {
			t.Fatalf("%s: expected range [0,100], got [%d,%d]", f, lo, hi)
		}
	}
	if lo, hi := qualityRange(FormatPNG); lo != 0 || hi != 9 {
		t.Fatalf("PNG: expected range [0,9], got [%d,%d]", lo, hi)
	}

	for _, f := range []Format{FormatPNG, FormatWebP, FormatAVIF} {
		if !supportsAlpha(f) {
			t.Fatalf("%s should support alpha", f)
		}
	}
	if supportsAlpha(FormatJPEG) {
		t.Fatal("JPEG should not support alpha")
	}
}

func TestDefaultQualityMatchesSpecLiterals(t *testing.T) {
	cases := map[Format]int{
		FormatJPEG: 85,
		FormatWebP: 80,
		FormatAVIF: 75,
		FormatPNG:  6,
	}
	for f, want := range cases {
		if got := defaultQuality(f); got != want {
			t.Errorf("defaultQuality(%s) = %d, want %d", f, got, want)
		}
	}
}

func TestEncodeFormatJPEGRoundTrip(t *testing.T) {
	buf, err := FromNRGBA(makeTestImage(64, 48))
	if err != nil {
		t.Fatalf("FromNRGBA failed: %v", err)
	}

	data, err := encodeFormat(buf, FormatJPEG, 80)
	if err != nil {
		t.Fatalf("encodeFormat(jpeg) failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("encoded JPEG data should not be empty")
	}
	if sniffFormat(data) != FormatJPEG {
		t.Fatal("encoded data does not sniff as JPEG")
	}

	decoded, err := decodeFormat(data, FormatJPEG)
	if err != nil {
		t.Fatalf("decodeFormat(jpeg) failed: %v", err)
	}
	if decoded.Width != 64 || decoded.Height != 48 {
		t.Fatalf("decoded dimensions mismatch: %dx%d", decoded.Width, decoded.Height)
	}
}

func TestEncodeFormatJPEGRejectsOutOfRangeQuality(t *testing.T) {
	buf, _ := FromNRGBA(makeTestImage(8, 8))
	if _, err := encodeFormat(buf, FormatJPEG, 0); err == nil {
		t.Fatal("expected an error for quality 0")
	}
	if _, err := encodeFormat(buf, FormatJPEG, 101); err == nil {
		t.Fatal("expected an error for quality 101")
	}
}

func TestEncodeFormatJPEGRejectsAlpha(t *testing.T) {
	buf, err := FromNRGBA(makeTestImageWithAlpha(8, 8))
	if err != nil {
		t.Fatalf("FromNRGBA failed: %v", err)
	}
	if _, err := encodeFormat(buf, FormatJPEG, 80); err == nil {
		t.Fatal("expected an error encoding an alpha buffer as JPEG")
	}
}

func TestEncodeFormatPNGRoundTrip(t *testing.T) {
	buf, err := FromNRGBA(makeTestImageWithAlpha(32, 32))
	if err != nil {
		t.Fatalf("FromNRGBA failed: %v", err)
	}

	data, err := encodeFormat(buf, FormatPNG, 0)
	if err != nil {
		t.Fatalf("encodeFormat(png) failed: %v", err)
	}
	if sniffFormat(data) != FormatPNG {
		t.Fatal("encoded data does not sniff as PNG")
	}

	decoded, err := decodeFormat(data, FormatPNG)
	if err != nil {
		t.Fatalf("decodeFormat(png) failed: %v", err)
	}
	if decoded.Width != 32 || decoded.Height != 32 {
		t.Fatalf("decoded dimensions mismatch: %dx%d", decoded.Width, decoded.Height)
	}
}

func TestTryPalettizeFewColors(t *testing.T) {
	img := makeSolidImage(40, 40, solidRed)
	paletted := tryPalettize(img, 256)
	if paletted == nil {
		t.Fatal("expected a palettized image for a solid-color input")
	}
	if len(paletted.Palette) != 1 {
		t.Fatalf("expected a 1-color palette, got %d", len(paletted.Palette))
	}
}

func TestTryPalettizeTooManyColors(t *testing.T) {
	img := makeTestImage(128, 128) // gradient, easily over 256 distinct colors
	if tryPalettize(img, 256) != nil {
		t.Fatal("expected tryPalettize to bail out past the color-count limit")
	}
}

func TestEncodePNGOptimalGrayscale(t *testing.T) {
	img := makeSolidImage(16, 16, grayColor)
	data, err := encodeFormat(mustFromNRGBA(t, img), FormatPNG, 0)
	if err != nil {
		t.Fatalf("encodeFormat(png) failed: %v", err)
	}
	if sniffFormat(data) != FormatPNG {
		t.Fatal("grayscale PNG output does not sniff as PNG")
	}
}
