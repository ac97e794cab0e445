package pyjamaz

import (
	"image"
	"image/color"
	"testing"
)

func TestSSIMIdentical(t *testing.T) {
	img := makeTestImage(100, 100)
	ssim := SSIM(img, img)
	if ssim < 0.999 {
		t.Fatalf("SSIM of identical images should be ~1.0, got %f", ssim)
	}
}

func TestSSIMDifferent(t *testing.T) {
	img1 := makeSolidImage(100, 100, colorBlack)
	img2 := makeSolidImage(100, 100, colorWhite)
	ssim := SSIM(img1, img2)
	if ssim > 0.1 {
		t.Fatalf("SSIM of black vs white should be very low, got %f", ssim)
	}
}

func TestSSIMSimilar(t *testing.T) {
	img := makeTestImage(100, 100)
	modified := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	copy(modified.Pix, img.Pix)
	for i := 0; i < len(modified.Pix); i += 4 {
		if modified.Pix[i] > 10 {
			modified.Pix[i] -= 10
		}
	}

	ssim := SSIM(img, modified)
	if ssim < 0.85 || ssim > 0.999 {
		t.Fatalf("SSIM of slightly modified image should be in [0.85, 0.999), got %f", ssim)
	}
}

func TestSSIMFast(t *testing.T) {
	img := makeTestImage(500, 500)
	ssim := SSIMFast(img, img)
	if ssim < 0.999 {
		t.Fatalf("SSIMFast of identical images should be ~1.0, got %f", ssim)
	}
}

func TestSSIMSmallImage(t *testing.T) {
	img := makeTestImage(4, 4)
	ssim := SSIM(img, img)
	if ssim < 0.999 {
		t.Fatalf("SSIM of small identical images should be ~1.0, got %f", ssim)
	}
}

func TestMSSSIM(t *testing.T) {
	img := makeTestImage(128, 128)
	msssim := MSSSIM(img, img)
	if msssim < 0.99 {
		t.Fatalf("MS-SSIM of identical images should be ~1.0, got %f", msssim)
	}
}

func TestSSIMGrayscaleUnaffectedByColorChannelOrder(t *testing.T) {
	a := makeSolidImage(16, 16, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	b := makeSolidImage(16, 16, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	if ssim := SSIM(a, b); ssim > 0.2 {
		t.Fatalf("two very different flat grays should score low similarity, got %f", ssim)
	}
}
