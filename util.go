package hashkv

import (
	"encoding/hex"
	"unicode/utf8"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

// loggableBytes renders a byte string for dumps: verbatim when printable,
// hex otherwise.
func loggableBytes(b []byte) string {
	if isPrintable(b) {
		return string(b)
	}
	return hexstr(b)
}

func isPrintable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, c := range b {
		if c < 0x20 || c == 0x7F {
			return false
		}
	}
	return len(b) > 0
}
