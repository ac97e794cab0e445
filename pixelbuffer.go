package pyjamaz

import (
	"fmt"
	"image"
)

// Safety envelope constants (spec.md §4.8): the named limits that image
// size, buffer size, search iterations and batch length are checked
// against. Pixel loops run over the image's own dimensions, which
// MaxDimension and MaxPixels cap.
const (
	// MaxDimension is the largest width or height accepted for a single
	// side, in pixels.
	MaxDimension = 65535
	// MaxPixels is the decompression-bomb limit: width*height must not
	// exceed this.
	MaxPixels = 178_000_000
	// MaxBufferBytes bounds the total size of one PixelBuffer's pixel
	// data.
	MaxBufferBytes = 4 << 30 // 4 GiB
	// MaxICCBytes rejects ICC profiles larger than this outright.
	MaxICCBytes = 10 << 20 // 10 MiB
	// WarnICCBytes is the envelope's ICC warning threshold. No code reads
	// it: profiles up to MaxICCBytes are accepted without a warning.
	WarnICCBytes = 1 << 20 // 1 MiB
	// MaxIterations bounds the quality search's binary-search loop.
	MaxIterations = 7
	// MaxInputFiles bounds a single batch run.
	MaxInputFiles = 10_000
	// MaxHashBytes bounds content-hashing loops (collaborator concern,
	// named here because the constant is part of the safety envelope).
	MaxHashBytes = 100 << 20
	// MaxRecursionDepth bounds directory-walk recursion (collaborator
	// concern; named for the same reason as MaxHashBytes).
	MaxRecursionDepth = 100
)

// PixelBuffer is the canonical intermediate pixel container: owned,
// stride-aware, and either 3 (RGB) or 4 (RGBA) channels wide. It is the
// leaf type every other layer in the engine is built on (spec.md §3, §4.1).
type PixelBuffer struct {
	Width      int
	Height     int
	Channels   int
	Stride     int
	ColorSpace string
	Data       []byte
}

// NewPixelBuffer allocates a zeroed PixelBuffer with the given dimensions
// and channel count. Channels must be 3 or 4; width/height must be in
// [1, MaxDimension] and width*height must not exceed MaxPixels.
func NewPixelBuffer(width, height, channels int) (*PixelBuffer, error) {
	if width < 1 || width > MaxDimension || height < 1 || height > MaxDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d out of range", ErrImageTooLarge, width, height)
	}
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: channels must be 3 or 4, got %d", ErrInvalidImage, channels)
	}
	if int64(width)*int64(height) > MaxPixels {
		return nil, fmt.Errorf("%w: %d pixels exceeds limit of %d", ErrImageTooLarge, width*height, MaxPixels)
	}

	stride := width * channels
	total := int64(stride) * int64(height)
	if total > MaxBufferBytes {
		return nil, fmt.Errorf("%w: buffer of %d bytes exceeds limit", ErrImageTooLarge, total)
	}

	buf := &PixelBuffer{
		Width:      width,
		Height:     height,
		Channels:   channels,
		Stride:     stride,
		ColorSpace: "sRGB",
		Data:       make([]byte, total),
	}

	// Post-condition: data length matches stride*height exactly.
	if int64(len(buf.Data)) != int64(buf.Stride)*int64(buf.Height) {
		return nil, fmt.Errorf("%w: allocation invariant violated", ErrOutOfMemory)
	}
	return buf, nil
}

// Row returns the Stride-length byte slice for row y. Asserts y is in
// bounds.
func (p *PixelBuffer) Row(y int) []byte {
	if y < 0 || y >= p.Height {
		panic(fmt.Sprintf("pyjamaz: Row(%d) out of bounds for height %d", y, p.Height))
	}
	off := y * p.Stride
	return p.Data[off : off+p.Stride]
}

// Pixel returns the Channels-length byte slice for pixel (x, y). Asserts
// both coordinates are in bounds.
func (p *PixelBuffer) Pixel(x, y int) []byte {
	if x < 0 || x >= p.Width || y < 0 || y >= p.Height {
		panic(fmt.Sprintf("pyjamaz: Pixel(%d,%d) out of bounds for %dx%d", x, y, p.Width, p.Height))
	}
	off := y*p.Stride + x*p.Channels
	return p.Data[off : off+p.Channels]
}

// HasAlpha reports whether the buffer carries an alpha channel.
func (p *PixelBuffer) HasAlpha() bool {
	return p.Channels == 4
}

// Clone returns an independent deep copy of the buffer.
func (p *PixelBuffer) Clone() *PixelBuffer {
	cp := &PixelBuffer{
		Width:      p.Width,
		Height:     p.Height,
		Channels:   p.Channels,
		Stride:     p.Stride,
		ColorSpace: p.ColorSpace,
		Data:       append([]byte(nil), p.Data...),
	}
	return cp
}

// FromNRGBA builds a PixelBuffer from a decoded *image.NRGBA, the common
// interop type with the decode/resize/encode libraries this engine wires
// in (imaging, the stdlib codecs, gen2brain/webp, ayla6/avif all produce
// or accept image.Image/*image.NRGBA).
func FromNRGBA(img *image.NRGBA) (*PixelBuffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf, err := NewPixelBuffer(w, h, 4)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		srcOff := y * img.Stride
		copy(buf.Row(y), img.Pix[srcOff:srcOff+img.Stride])
	}
	return buf, nil
}

// ToNRGBA converts a 4-channel PixelBuffer back into an *image.NRGBA for
// handing to an encoder. Panics if Channels != 4; there is no 3-channel
// conversion.
func (p *PixelBuffer) ToNRGBA() *image.NRGBA {
	if p.Channels != 4 {
		panic("pyjamaz: ToNRGBA requires a 4-channel buffer")
	}
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		dstOff := y * img.Stride
		copy(img.Pix[dstOff:dstOff+img.Stride], p.Row(y))
	}
	return img
}
