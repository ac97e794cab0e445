package pyjamaz

import "testing"

func TestAnalyzeGradientDimensionsAndEntropy(t *testing.T) {
	img := makeTestImage(200, 200)
	stats := Analyze(img)

	if stats.Width != 200 || stats.Height != 200 {
		t.Fatalf("wrong dimensions: %dx%d", stats.Width, stats.Height)
	}
	if stats.HasAlpha {
		t.Fatal("gradient test image should not have alpha")
	}
	if stats.Entropy < 1 {
		t.Fatalf("entropy too low for a gradient: %f", stats.Entropy)
	}
}

func TestAnalyzeSolidColorIsLowEntropyGrayscale(t *testing.T) {
	img := makeSolidImage(100, 100, grayColor)
	stats := Analyze(img)

	if !stats.IsGrayscale {
		t.Fatal("a solid gray image should be classified as grayscale")
	}
	if stats.Entropy > 0.01 {
		t.Fatalf("entropy should be ~0 for a solid color, got %f", stats.Entropy)
	}
}

func TestAnalyzeAlphaImageRecommendsPNG(t *testing.T) {
	img := makeTestImageWithAlpha(100, 100)
	stats := Analyze(img)

	if !stats.HasAlpha {
		t.Fatal("expected HasAlpha to be true")
	}
	if stats.RecommendedFormat != FormatPNG {
		t.Fatalf("expected PNG recommendation for an alpha image, got %v", stats.RecommendedFormat)
	}
}

func TestAnalyzeEmptyImage(t *testing.T) {
	img := makeTestImage(0, 0)
	stats := Analyze(img)
	if stats.Width != 0 || stats.Height != 0 {
		t.Fatalf("expected zero dimensions preserved, got %dx%d", stats.Width, stats.Height)
	}
}

func TestComputeEntropyUniformHistogramIsMaximal(t *testing.T) {
	var hist [256]float64
	for i := range hist {
		hist[i] = 1
	}
	e := computeEntropy(hist[:], 256)
	if e < 7.9 || e > 8.01 {
		t.Fatalf("expected entropy close to 8 bits for a uniform histogram, got %f", e)
	}
}

func TestComputeEntropyZeroTotalIsZero(t *testing.T) {
	var hist [256]float64
	if e := computeEntropy(hist[:], 0); e != 0 {
		t.Fatalf("expected 0 entropy for a zero-total histogram, got %f", e)
	}
}

func TestRecommendFormatFromStatsFewColorsIsPNG(t *testing.T) {
	stats := ImageStats{UniqueColors: 10}
	if recommendFormatFromStats(stats) != FormatPNG {
		t.Fatal("few unique colors should recommend PNG")
	}
}

func TestRecommendFormatFromStatsPhotoIsJPEG(t *testing.T) {
	stats := ImageStats{UniqueColors: 50000, EdgeDensity: 0.05}
	if recommendFormatFromStats(stats) != FormatJPEG {
		t.Fatal("a high-color low-edge-density image should recommend JPEG")
	}
}

func TestEstimateCompressionPNGFewColorsHigherThanMany(t *testing.T) {
	few := estimateCompression(ImageStats{RecommendedFormat: FormatPNG, UniqueColors: 16})
	many := estimateCompression(ImageStats{RecommendedFormat: FormatPNG, UniqueColors: 256})
	if few <= many {
		t.Fatalf("fewer unique colors should estimate a higher compression ratio: few=%f many=%f", few, many)
	}
}
