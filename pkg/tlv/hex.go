package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes hex digits split over any number of strings. Whitespace
// is ignored, so "00 A4 04 00" and "00A4", "0400" decode alike.
func ParseHex(parts ...string) ([]byte, error) {
	digits := strings.Join(strings.Fields(strings.Join(parts, "")), "")
	data, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", digits, err)
	}
	return data, nil
}

// Hex is ParseHex for literals known to be valid; it panics otherwise.
func Hex(parts ...string) []byte {
	data, err := ParseHex(parts...)
	if err != nil {
		panic(err)
	}
	return data
}
