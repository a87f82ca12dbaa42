package resources

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// decodeText turns raw file bytes into UTF-8 text. It handles BOM-marked
// UTF-16, valid UTF-8 and single-byte Windows-1252 fallback; anything that
// still looks binary reports ok=false so callers serve a blob instead.
func decodeText(data []byte) (text string, ok bool) {
	if len(data) == 0 {
		return "", true
	}

	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}):
		data = data[3:]
	case len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xFE}):
		return decodeWith(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	case len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFE, 0xFF}):
		return decodeWith(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder())
	}

	if looksBinary(data) {
		return "", false
	}

	if utf8.Valid(data) {
		return string(data), true
	}

	// Non-UTF-8 single-byte text; Windows-1252 covers Latin-1 too.
	return decodeWith(data, charmap.Windows1252.NewDecoder())
}

func decodeWith(data []byte, decoder *encoding.Decoder) (string, bool) {
	decoded, err := decoder.Bytes(data)
	if err != nil {
		return "", false
	}
	return string(bytes.ToValidUTF8(decoded, []byte("�"))), true
}

// looksBinary applies the NUL-byte heuristic on a bounded sample.
func looksBinary(data []byte) bool {
	sample := data
	if len(sample) > 8192 {
		sample = sample[:8192]
	}
	return bytes.IndexByte(sample, 0) >= 0
}
