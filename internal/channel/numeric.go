package channel

import (
	"fmt"
	"strings"
)

// MaxValueLength is the longest value, in digits, a slot accepts
const MaxValueLength = 256

// alphabet maps each supported character to its two-digit code: the
// character at index i encodes as i+1, so "00" never appears.
const alphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	" !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var codes = func() map[rune]int {
	m := make(map[rune]int, len(alphabet))
	for i, r := range alphabet {
		m[r] = i + 1
	}
	return m
}()

// EncodeNumeric converts text into a string of digit pairs
func EncodeNumeric(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text) * 2)
	for _, r := range text {
		code, ok := codes[r]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnencodable, r)
		}
		fmt.Fprintf(&b, "%02d", code)
	}
	if b.Len() > MaxValueLength {
		return "", fmt.Errorf("%w: %d digits", ErrValueTooLong, b.Len())
	}
	return b.String(), nil
}

// DecodeNumeric converts a string of digit pairs back into text
func DecodeNumeric(value string) (string, error) {
	if len(value)%2 != 0 {
		return "", fmt.Errorf("%w: odd length %d", ErrInvalidEncoding, len(value))
	}
	var b strings.Builder
	b.Grow(len(value) / 2)
	for i := 0; i < len(value); i += 2 {
		hi, lo := value[i], value[i+1]
		if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
			return "", fmt.Errorf("%w: non-digit at %d", ErrInvalidEncoding, i)
		}
		code := int(hi-'0')*10 + int(lo-'0')
		if code < 1 || code > len(alphabet) {
			return "", fmt.Errorf("%w: code %02d", ErrInvalidEncoding, code)
		}
		b.WriteByte(alphabet[code-1])
	}
	return b.String(), nil
}
