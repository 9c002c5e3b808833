package kernels

import "encoding/binary"

// StringAt reads the UTF-32 string stored at element idx of a Str
// variable buffer. itemSize is the slot width in bytes (a multiple of
// 4, little-endian code points); the string ends at the first null code
// point or the end of the slot, whichever comes first.
func StringAt(buf []byte, itemSize, idx int) []rune {
	start := idx * itemSize
	n := itemSize / 4
	runes := make([]rune, 0, n)
	for i := 0; i < n; i++ {
		cp := rune(binary.LittleEndian.Uint32(buf[start+i*4 : start+i*4+4]))
		if cp == 0 {
			break
		}
		runes = append(runes, cp)
	}
	return runes
}

// TrimNull cuts r at its first null code point.
func TrimNull(r []rune) []rune {
	for i, cp := range r {
		if cp == 0 {
			return r[:i]
		}
	}
	return r
}

func RunesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func HasPrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	return RunesEqual(s[:len(prefix)], prefix)
}

func HasSuffix(s, suffix []rune) bool {
	if len(suffix) > len(s) {
		return false
	}
	return RunesEqual(s[len(s)-len(suffix):], suffix)
}

func Contains(s, needle []rune) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(s); i++ {
		if RunesEqual(s[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}
