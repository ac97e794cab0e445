package pyjamaz

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/disintegration/imaging"
)

var initImagingOnce sync.Once

// initImaging performs the one-time setup the imaging package expects
// (none today — imaging has no global registration step — but the slot is
// kept so a future encoder registration doesn't need every call site
// touched).
func initImaging() {
	initImagingOnce.Do(func() {})
}

// LoadImage reads path, orients it per EXIF, and returns both the decoded
// PixelBuffer and the metadata the decode pass observed. This is the single
// entry point every Job starts from.
func LoadImage(path string) (*PixelBuffer, ImageMetadata, error) {
	initImaging()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("%w: read %q: %v", ErrLoadFailed, path, err)
	}

	format := sniffFormat(data)
	if format == FormatUnknown {
		return nil, ImageMetadata{}, fmt.Errorf("%w: %q has no recognized magic bytes", ErrUnsupportedFormat, path)
	}

	orient := ReadOrientation(bytes.NewReader(data))

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("%w: decode %q: %v", ErrLoadFailed, path, err)
	}

	buf, err := FromNRGBA(toNRGBA(img))
	if err != nil {
		return nil, ImageMetadata{}, err
	}

	icc, err := extractICCProfile(data, format)
	if err != nil {
		return nil, ImageMetadata{}, err
	}

	meta := ImageMetadata{
		Format:          format,
		OriginalWidth:   buf.Width,
		OriginalHeight:  buf.Height,
		HasAlpha:        !isOpaque(buf.ToNRGBA()),
		EXIFOrientation: orient,
		ICCProfile:      icc,
	}

	return buf, meta, nil
}

// extractICCProfile pulls an embedded ICC profile out of a JPEG or PNG
// byte stream using a narrow, format-specific binary scan — the same
// hand-rolled style as ReadOrientation, rather than a full color-management
// library, since this engine only ever needs the raw profile bytes to
// preserve or strip, never to interpret them.
func extractICCProfile(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJPEG:
		return extractJPEGICCProfile(data)
	case FormatPNG:
		return extractPNGICCProfile(data)
	default:
		return nil, nil
	}
}

// extractJPEGICCProfile reassembles an ICC profile split across one or more
// APP2 "ICC_PROFILE" segments, per the standard multi-segment layout:
// a 12-byte "ICC_PROFILE\0" header, a 1-byte sequence number, a 1-byte
// segment count, then the profile chunk.
func extractJPEGICCProfile(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, nil
	}

	var chunks []iccChunk
	var total byte

	r := bytes.NewReader(data[2:])
	for {
		var marker [2]byte
		if _, err := io.ReadFull(r, marker[:]); err != nil {
			break
		}
		if marker[0] != 0xFF {
			break
		}
		for marker[1] == 0xFF {
			if _, err := io.ReadFull(r, marker[1:]); err != nil {
				return assembleICCChunksSorted(chunks, total)
			}
		}
		if marker[1] == 0xDA { // SOS — image data starts, no more markers.
			break
		}

		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			break
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf[:])) - 2
		if segLen < 0 {
			break
		}

		seg := make([]byte, segLen)
		if _, err := io.ReadFull(r, seg); err != nil {
			break
		}

		if marker[1] == 0xE2 && len(seg) > 14 && bytes.HasPrefix(seg, []byte("ICC_PROFILE\x00")) {
			seq := seg[12]
			count := seg[13]
			total = count
			chunks = append(chunks, iccChunk{seq: seq, data: seg[14:]})
		}
	}

	return assembleICCChunksSorted(chunks, total)
}

// iccChunk is one APP2 ICC_PROFILE segment awaiting reassembly.
type iccChunk struct {
	seq  byte
	data []byte
}

// assembleICCChunksSorted orders chunks by their declared sequence number
// and concatenates them, enforcing the MaxICCBytes safety ceiling.
func assembleICCChunksSorted(chunks []iccChunk, total byte) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	ordered := make([][]byte, total)
	for _, c := range chunks {
		if int(c.seq) >= 1 && int(c.seq) <= int(total) {
			ordered[c.seq-1] = c.data
		}
	}
	var out []byte
	for _, part := range ordered {
		out = append(out, part...)
	}
	if len(out) > MaxICCBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrIccProfileTooLarge, len(out))
	}
	return out, nil
}

// extractPNGICCProfile decodes a PNG "iCCP" chunk: a null-terminated
// profile name, a 1-byte compression method (always 0 = zlib/deflate),
// then the zlib-compressed profile.
func extractPNGICCProfile(data []byte) ([]byte, error) {
	pngSig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	if len(data) < 8 || !bytes.Equal(data[:8], pngSig) {
		return nil, nil
	}

	pos := 8
	for pos+8 <= len(data) {
		chunkLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		chunkType := string(data[pos+4 : pos+8])
		bodyStart := pos + 8
		bodyEnd := bodyStart + chunkLen
		if bodyEnd+4 > len(data) || chunkLen < 0 {
			break
		}

		if chunkType == "iCCP" {
			body := data[bodyStart:bodyEnd]
			nul := bytes.IndexByte(body, 0)
			if nul < 0 || nul+2 > len(body) {
				return nil, nil
			}
			compressed := body[nul+2:]
			zr, err := zlib.NewReader(bytes.NewReader(compressed))
			if err != nil {
				return nil, nil
			}
			defer zr.Close()
			profile, err := io.ReadAll(io.LimitReader(zr, MaxICCBytes+1))
			if err != nil {
				return nil, nil
			}
			if len(profile) > MaxICCBytes {
				return nil, fmt.Errorf("%w: %d bytes", ErrIccProfileTooLarge, len(profile))
			}
			return profile, nil
		}

		if chunkType == "IDAT" {
			break // iCCP, if present, always precedes IDAT.
		}

		pos = bodyEnd + 4 // skip CRC
	}

	return nil, nil
}
