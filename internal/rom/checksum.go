package rom

// Sum adds the big-endian words of img from start to the end. A trailing
// odd byte counts as the high byte of a word.
func Sum(img []byte, start int) uint16 {
	var sum uint16
	for i := start; i < len(img); i += 2 {
		if i+1 < len(img) {
			sum += readU16(img[i:])
		} else {
			sum += uint16(img[i]) << 8
		}
	}

	return sum
}

// FixChecksum stores the image sum at the checksum offset.
func FixChecksum(img []byte, c Checksum) {
	b, err := span(img, c.Offset, 2)
	if err != nil {
		return
	}

	writeU16(b, Sum(img, c.Start))
}
