package valueobject

import "math"

// Base62Alphabet orders digits, then upper case, then lower case letters.
const Base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = int64(len(Base62Alphabet))

// maxEncodedLength is the length of Encode(math.MaxInt64).
const maxEncodedLength = 11

var decodeTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Base62Alphabet); i++ {
		t[Base62Alphabet[i]] = int8(i)
	}
	return t
}()

// Encode maps a positive id to its base62 form, most significant digit first.
// Encode(0) is the empty string; ids produced by the generator are always positive.
func Encode(id int64) string {
	if id <= 0 {
		return ""
	}
	var buf [maxEncodedLength]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = Base62Alphabet[id%base]
		id /= base
	}
	return string(buf[i:])
}

// Decode is the inverse of Encode. It reports false for empty input, characters
// outside the alphabet and values that overflow int64.
func Decode(code string) (int64, bool) {
	if code == "" || len(code) > maxEncodedLength {
		return 0, false
	}
	var n int64
	for i := 0; i < len(code); i++ {
		d := decodeTable[code[i]]
		if d < 0 {
			return 0, false
		}
		if n > (math.MaxInt64-int64(d))/base {
			return 0, false
		}
		n = n*base + int64(d)
	}
	return n, true
}
