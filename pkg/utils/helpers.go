package utils

import (
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HexBytes renders b as space separated hex octets, e.g. "01 02 03".
func HexBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b)*3 - 1)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(hex.EncodeToString([]byte{c}))
	}
	return sb.String()
}

// PrintableOrHex returns b as text when it is valid UTF-8 made of printable
// characters, and as hex octets otherwise.
func PrintableOrHex(b []byte) string {
	if !utf8.Valid(b) {
		return HexBytes(b)
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return HexBytes(b)
		}
	}
	return string(b)
}
