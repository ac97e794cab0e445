package pyjamaz

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

var (
	solidRed   = color.NRGBA{R: 200, G: 0, B: 0, A: 255}
	grayColor  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	colorBlack = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	colorWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func mustFromNRGBA(t *testing.T, img *image.NRGBA) *PixelBuffer {
	t.Helper()
	pb, err := FromNRGBA(img)
	if err != nil {
		t.Fatalf("FromNRGBA failed: %v", err)
	}
	return pb
}

func makeTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			img.Pix[off] = uint8(x * 255 / w)
			img.Pix[off+1] = uint8(y * 255 / h)
			img.Pix[off+2] = uint8((x + y) % 256)
			img.Pix[off+3] = 0xff
		}
	}
	return img
}

func makeTestImageWithAlpha(w, h int) *image.NRGBA {
	img := makeTestImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			img.Pix[off+3] = uint8(x * 255 / w)
		}
	}
	return img
}

func makeSolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func encodeJPEGBytes(img *image.NRGBA, quality int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func encodePNGBytes(img *image.NRGBA) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
