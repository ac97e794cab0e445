package pyjamaz

import (
	"encoding/binary"
	"io"
)

// ReadOrientation reads the EXIF orientation tag from a JPEG stream.
// Returns OrientNormal (1) if no orientation is found or the file is not
// JPEG. This is a minimal hand-rolled parser that only reads the
// orientation tag — it does not parse the full EXIF tree.
func ReadOrientation(r io.ReadSeeker) Orientation {
	var soi [2]byte
	if _, err := io.ReadFull(r, soi[:]); err != nil {
		return OrientNormal
	}
	if soi[0] != 0xFF || soi[1] != 0xD8 {
		return OrientNormal // Not a JPEG.
	}

	for {
		var marker [2]byte
		if _, err := io.ReadFull(r, marker[:]); err != nil {
			return OrientNormal
		}
		if marker[0] != 0xFF {
			return OrientNormal
		}

		for marker[1] == 0xFF {
			if _, err := io.ReadFull(r, marker[1:]); err != nil {
				return OrientNormal
			}
		}

		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return OrientNormal
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf[:])) - 2

		if segLen < 0 {
			return OrientNormal
		}

		if marker[1] == 0xE1 { // APP1
			return parseAPP1(r, segLen)
		}

		if marker[1] == 0xDA { // SOS — no more metadata after this.
			return OrientNormal
		}

		if _, err := r.Seek(int64(segLen), io.SeekCurrent); err != nil {
			return OrientNormal
		}
	}
}

// parseAPP1 parses an APP1 segment for the EXIF orientation tag.
func parseAPP1(r io.ReadSeeker, segLen int) Orientation {
	if segLen < 14 {
		return OrientNormal
	}

	data := make([]byte, segLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return OrientNormal
	}

	if len(data) < 6 || string(data[:4]) != "Exif" || data[4] != 0 || data[5] != 0 {
		return OrientNormal
	}

	tiff := data[6:]
	if len(tiff) < 8 {
		return OrientNormal
	}

	var bo binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return OrientNormal
	}

	if bo.Uint16(tiff[2:4]) != 42 {
		return OrientNormal
	}

	ifdOffset := int(bo.Uint32(tiff[4:8]))
	if ifdOffset < 8 || ifdOffset+2 > len(tiff) {
		return OrientNormal
	}

	entryCount := int(bo.Uint16(tiff[ifdOffset : ifdOffset+2]))
	ifdOffset += 2

	for i := 0; i < entryCount; i++ {
		entryOff := ifdOffset + i*12
		if entryOff+12 > len(tiff) {
			break
		}

		tag := bo.Uint16(tiff[entryOff : entryOff+2])
		if tag == 0x0112 { // Orientation tag
			dataType := bo.Uint16(tiff[entryOff+2 : entryOff+4])
			if dataType != 3 { // SHORT type
				return OrientNormal
			}
			val := bo.Uint16(tiff[entryOff+8 : entryOff+10])
			if val >= 1 && val <= 8 {
				return Orientation(val)
			}
			return OrientNormal
		}
	}

	return OrientNormal
}
