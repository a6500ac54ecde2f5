package match

import "unicode/utf16"

// SimpleHash is the rolling hash used to pick suggestion templates. It runs
// over UTF-16 code units with h = (h<<5) - h + c on a signed 32-bit
// accumulator and returns the absolute value. The exact algorithm is a
// compatibility contract: changing it changes every generated suggestion
// message.
func SimpleHash(s string) uint32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	if h < 0 {
		if h == -2147483648 {
			return 2147483648
		}
		return uint32(-h)
	}
	return uint32(h)
}
