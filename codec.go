package pyjamaz

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/ayla6/avif"
	"github.com/gen2brain/webp"
)

// magic-byte prefixes used by sniffFormat, in the teacher's style of
// hand-checking a handful of known signatures rather than pulling in a
// sniffing library for this narrow, closed-set check.
var (
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
	magicPNG  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	magicRIFF = []byte{'R', 'I', 'F', 'F'}
	magicWEBP = []byte{'W', 'E', 'B', 'P'}
)

// sniffFormat identifies the container format from its leading bytes,
// independent of any file extension. AVIF is an ISOBMFF/HEIF box stream
// identified by an "ftyp" box carrying an "avif"/"avis" brand.
func sniffFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, magicJPEG):
		return FormatJPEG
	case bytes.HasPrefix(data, magicPNG):
		return FormatPNG
	case len(data) >= 12 && bytes.Equal(data[0:4], magicRIFF) && bytes.Equal(data[8:12], magicWEBP):
		return FormatWebP
	case isAVIFBoxStream(data):
		return FormatAVIF
	default:
		return FormatUnknown
	}
}

// isAVIFBoxStream checks for an ISOBMFF "ftyp" box at offset 4 whose major
// brand (bytes 8-12) is "avif" or "avis", where a real decode would
// otherwise need a full box parser just to answer "is this AVIF".
// Compatible brands are not searched.
func isAVIFBoxStream(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	brand := data[8:12]
	return bytes.Equal(brand, []byte("avif")) || bytes.Equal(brand, []byte("avis"))
}

// defaultQuality returns the format's conventional starting quality for a
// standard (non-budget) encode, per spec.md §4.2.
func defaultQuality(f Format) int {
	switch f {
	case FormatJPEG:
		return 85
	case FormatWebP:
		return 80
	case FormatAVIF:
		return 75
	case FormatPNG:
		return 6
	default:
		return 0
	}
}

// qualityRange returns the valid [min, max] quality bound for a format, per
// spec.md §4.2: jpeg is 1..100, webp/avif are 0..100, png's range is a
// compression-level scale (0..9) rather than a lossy quality knob, and is
// ignored by encodeFormat's PNG path (see encodePNGOptimal).
func qualityRange(f Format) (min, max int) {
	switch f {
	case FormatJPEG:
		return 1, 100
	case FormatWebP, FormatAVIF:
		return 0, 100
	case FormatPNG:
		return 0, 9
	default:
		return 0, 0
	}
}

// supportsAlpha reports whether a format can carry a native alpha channel.
func supportsAlpha(f Format) bool {
	switch f {
	case FormatPNG, FormatWebP, FormatAVIF:
		return true
	default:
		return false
	}
}

// encodeFormat encodes a PixelBuffer to the given format at the given
// quality (ignored for PNG). JPEG has no alpha channel: if any pixel of buf
// is not fully opaque, encodeFormat refuses rather than silently dropping
// data, per the "alpha-drop is a caller decision, not a codec default" rule
// this engine follows. A 4-channel buffer whose pixels are all opaque
// encodes normally. The encoded bytes must be non-empty and sniff as f,
// otherwise ErrEncodeFailed is returned.
func encodeFormat(buf *PixelBuffer, f Format, quality int) ([]byte, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrInvalidImage)
	}

	if f != FormatPNG {
		lo, hi := qualityRange(f)
		if quality < lo || quality > hi {
			return nil, fmt.Errorf("%w: quality %d out of range [%d,%d] for %s", ErrInvalidQuality, quality, lo, hi, f)
		}
	}

	img := buf.ToNRGBA()
	if buf.HasAlpha() && !supportsAlpha(f) && !isOpaque(img) {
		return nil, fmt.Errorf("%w: %s cannot carry an alpha channel", ErrUnsupportedFormat, f)
	}

	var out bytes.Buffer

	switch f {
	case FormatJPEG:
		if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("%w: jpeg: %v", ErrEncodeFailed, err)
		}
	case FormatPNG:
		if err := encodePNGOptimal(&out, img); err != nil {
			return nil, fmt.Errorf("%w: png: %v", ErrEncodeFailed, err)
		}
	case FormatWebP:
		if err := webp.Encode(&out, img, webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("%w: webp: %v", ErrEncodeFailed, err)
		}
	case FormatAVIF:
		if err := avif.Encode(&out, img, avif.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("%w: avif: %v", ErrEncodeFailed, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}

	data := out.Bytes()
	if len(data) == 0 || sniffFormat(data) != f {
		return nil, fmt.Errorf("%w: %s output failed magic-byte check", ErrEncodeFailed, f)
	}
	return data, nil
}

// decodeFormat decodes raw bytes of a known format back into a PixelBuffer,
// used by the metric layer to re-measure an encoded candidate against the
// original.
func decodeFormat(data []byte, f Format) (*PixelBuffer, error) {
	var img image.Image
	var err error

	switch f {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	case FormatAVIF:
		img, err = avif.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, f, err)
	}

	return FromNRGBA(toNRGBA(img))
}

// encodePNGOptimal mirrors the teacher's compressPNG: indexed-palette
// output when the image has few enough distinct colors, grayscale when
// every pixel is achromatic and opaque, otherwise full NRGBA — all at
// BestCompression.
func encodePNGOptimal(w io.Writer, img *image.NRGBA) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}

	if paletted := tryPalettize(img, 256); paletted != nil {
		return enc.Encode(w, paletted)
	}
	if isGrayscale(img) && isOpaque(img) {
		return enc.Encode(w, toGray(img))
	}
	return enc.Encode(w, img)
}

// tryPalettize converts img to an indexed-color image if it uses at most
// maxColors distinct colors, returning nil otherwise.
func tryPalettize(img *image.NRGBA, maxColors int) *image.Paletted {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	colorMap := make(map[[4]uint8]int)

	for y := 0; y < h; y++ {
		off := y * img.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			key := [4]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
			colorMap[key]++
			if len(colorMap) > maxColors {
				return nil
			}
		}
	}

	palette := make([]color.Color, 0, len(colorMap))
	colorIndex := make(map[[4]uint8]uint8, len(colorMap))

	for c := range colorMap {
		idx := uint8(len(palette))
		colorIndex[c] = idx
		palette = append(palette, color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
	}

	paletted := image.NewPaletted(image.Rect(0, 0, w, h), palette)
	for y := 0; y < h; y++ {
		srcOff := y * img.Stride
		dstOff := y * paletted.Stride
		for x := 0; x < w; x++ {
			i := srcOff + x*4
			key := [4]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
			paletted.Pix[dstOff+x] = colorIndex[key]
		}
	}

	return paletted
}
