package randomizer

import (
	"encoding/hex"
	"strings"

	"github.com/woozymasta/mw-randomizer/internal/rom"
)

// Patched 68000 code and screen data, hex encoded.
const (
	// levelSwapHex holds the next-round table (16 words), the swap routine at
	// +0x20, the first round word at +0x5E and the init routine at +0x46.
	levelSwapHex = "0000000000000000000000000000000000000000000000000000000000000000" +
		"4278de524278de544278de564278de5e3038de420c40001065024e75e34831fb" +
		"00c0de424e750c38003cdf9a6700000a11fc0014de004e7548e7fffe31fc0000" +
		"de424eb90000513031f8de40dd4031f8de42dd4231f8de40dc4031f8de42dc42" +
		"4cdf7fff4e75"

	// entryHookHex is "jsr <routine>; jmp $5130" padded to EntryHookLen.
	entryHookHex = "4eb9000000004ef9000051300000000000000000"

	// initHookHex is "jsr <routine>".
	initHookHex = "4eb900000000"

	// titleHex replaces the "press start button" tiles with "randomized".
	titleHex = `
0000000000000583058405850586058705880589058a058b058c000000000000
0000000000000000058d058e058f059005910592059305940595059600000000
0000000080148004024606551914042518661535177304814771040615165852
2602750b360582051e1770285383040d4728140a570926396708351d7500ffbf
460b34aec5755d9d26f2db9c092e556ee1ba956bd2379bcbb5269284e5afa561
98ab359b79bcc8bd4e95274662dcb2ad962d6f3782f22cbb8118b489b8b25bc2
f965b7dc6a6dfa3566d30de646f2d94174a8a9b012ad962d6c3155bc1796dd21
38a4abf38e932561afc7cbb7242139cb150cd433658adc194d8b72c5b7d261aa
4cd65b8579bd9dc857ec92579bcdedc696df89024937cde6f52696df8a02493c
de17c5a5d25824914c5f58bb852049279bd5e6f16df4824081249c7d65054b04
920be0ba5cac12481785e4bab049270a198b6ec5a3549264`
)

// Offsets inside the level swap block.
const (
	levelSwapLen     = 0x86
	levelSwapCode    = 0x20
	levelSwapInit    = 0x46
	levelSwapFirst   = 0x5E
	levelSwapEntries = 16
)

// blob decodes a hex constant into a fresh slice of length n, zero padded.
func blob(s string, n int) []byte {
	raw, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		panic("randomizer: bad blob: " + err.Error())
	}

	out := make([]byte, n)
	copy(out, raw)

	return out
}

func levelSwapBlob() []byte { return blob(levelSwapHex, levelSwapLen) }
func entryHookBlob() []byte { return blob(entryHookHex, rom.EntryHookLen) }
func initHookBlob() []byte  { return blob(initHookHex, rom.InitHookLen) }
func titleBlob() []byte     { return blob(titleHex, rom.TitleLen) }
