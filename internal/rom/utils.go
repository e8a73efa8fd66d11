package rom

import (
	"errors"
)

// readU16 reads a big-endian 16-bit integer from a byte slice.
func readU16(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}

	return uint16(b[0])<<8 | uint16(b[1])
}

// readU32 reads a big-endian 32-bit integer from a byte slice.
func readU32(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}

	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// writeU16 writes a big-endian 16-bit integer.
func writeU16(b []byte, v uint16) {
	if len(b) < 2 {
		return
	}

	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

// writeU16FromInt writes a big-endian 16-bit integer, rejecting values out of range.
func writeU16FromInt(b []byte, v int) error {
	if v < 0 || v > 0xFFFF {
		return errors.New("value out of uint16 range")
	}
	if len(b) < 2 {
		return errors.New("buffer too small for uint16")
	}

	writeU16(b, uint16(v))

	return nil
}

// writeU32 writes a big-endian 32-bit integer.
func writeU32(b []byte, v uint32) {
	if len(b) < 4 {
		return
	}

	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// span returns img[off:off+n] or an error when it does not fit.
func span(img []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(img) {
		return nil, errors.New("range outside of image")
	}

	return img[off : off+n], nil
}

// ReadU32 reads a big-endian 32-bit word at off; out of range reads are zero.
func ReadU32(img []byte, off int) uint32 {
	b, err := span(img, off, 4)
	if err != nil {
		return 0
	}

	return readU32(b)
}

// WriteU32 writes a big-endian 32-bit word at off.
func WriteU32(img []byte, off int, v uint32) error {
	b, err := span(img, off, 4)
	if err != nil {
		return err
	}
	writeU32(b, v)

	return nil
}

// Put copies data into img at off.
func Put(img []byte, off int, data []byte) error {
	b, err := span(img, off, len(data))
	if err != nil {
		return err
	}
	copy(b, data)

	return nil
}

// Get returns a copy of img[off:off+n].
func Get(img []byte, off, n int) ([]byte, error) {
	b, err := span(img, off, n)
	if err != nil {
		return nil, err
	}

	return append([]byte(nil), b...), nil
}
