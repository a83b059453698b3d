// Package bits numbers bits the way ISO/IEC 7816 and EMV tables do:
// b8 is the most significant bit of a byte and b1 the least significant.
package bits

// Bit returns a byte with only bit n set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet reports whether bit n is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// Mask returns a byte with bits high down to low set.
// Mask(5, 1) is 0x1F, the BER tag number field.
func Mask(high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}
	width := high - low + 1
	return byte((1<<width)-1) << (low - 1)
}

// GetRange extracts the value held in bits high down to low.
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	m := Mask(high, low)
	if m == 0 {
		return 0
	}
	return (b & m) >> (low - 1)
}

// Set returns b with bit n set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}
