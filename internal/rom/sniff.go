package rom

import (
	"io"
	"os"
)

const headerMagicOffset = 0x100

// Sniff reads the cartridge header and reports whether it is a Genesis image.
// It returns ok=true for "SEGA" at 0x100, and the detected kind string.
func Sniff(path string) (ok bool, kind string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	var hdr [4]byte
	if _, err := f.ReadAt(hdr[:], headerMagicOffset); err != nil {
		if err == io.EOF {
			return false, "TRUNCATED", nil
		}
		return false, "", err
	}

	return kindOf(hdr[:])
}

// SniffBytes is Sniff for an image already in memory.
func SniffBytes(img []byte) (ok bool, kind string) {
	b, err := span(img, headerMagicOffset, 4)
	if err != nil {
		return false, "TRUNCATED"
	}

	ok, kind, _ = kindOf(b)

	return ok, kind
}

func kindOf(hdr []byte) (bool, string, error) {
	switch string(hdr) {
	case "SEGA":
		return true, "GENESIS", nil
	default:
		return false, "UNKNOWN", nil
	}
}
