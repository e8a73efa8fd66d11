package rom

import "testing"

func TestWriteU16FromInt(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 2)
	if err := writeU16FromInt(buf, 0x1234); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf[0] != 0x12 || buf[1] != 0x34 {
		t.Fatalf("not big-endian: % x", buf)
	}
	if readU16(buf) != 0x1234 {
		t.Fatalf("roundtrip mismatch: %#x", readU16(buf))
	}

	if err := writeU16FromInt(buf, -1); err == nil {
		t.Fatalf("expected error for negative value")
	}
	if err := writeU16FromInt(buf, 0x10000); err == nil {
		t.Fatalf("expected error for overflow")
	}
}

func TestU32Helpers(t *testing.T) {
	t.Parallel()

	img := make([]byte, 8)
	if err := WriteU32(img, 2, 0xDEADBEEF); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ReadU32(img, 2); got != 0xDEADBEEF {
		t.Fatalf("ReadU32=%#x", got)
	}
	if err := WriteU32(img, 6, 1); err == nil {
		t.Fatalf("expected error past the end")
	}
	if got := ReadU32(img, 7); got != 0 {
		t.Fatalf("out of range read=%#x want 0", got)
	}
}
