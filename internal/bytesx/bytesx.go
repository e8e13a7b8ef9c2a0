// Package bytesx holds the byte-level helpers shared by the decoders.
package bytesx

// HexValue returns the value of a single hex digit.
func HexValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// PercentDecode appends the form-decoded form of src to dst.
// %XX becomes the byte XX and '+' becomes a space. A '%' that is not followed by two hex
// digits is copied through literally along with whatever follows it.
func PercentDecode(dst, src []byte) []byte {
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '%':
			if i+2 < len(src) {
				hi, ok1 := HexValue(src[i+1])
				lo, ok2 := HexValue(src[i+2])
				if ok1 && ok2 {
					dst = append(dst, hi<<4|lo)
					i += 2
					continue
				}
			}
			dst = append(dst, c)
		case '+':
			dst = append(dst, ' ')
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// EqualFold reports whether a and b are equal under ASCII case folding.
func EqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

// EqualFoldString is EqualFold for a byte slice against a string.
func EqualFoldString(a []byte, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

// HasPrefixFold reports whether s begins with prefix, ignoring ASCII case.
func HasPrefixFold(s []byte, prefix string) bool {
	return len(s) >= len(prefix) && EqualFoldString(s[:len(prefix)], prefix)
}

// IndexFold returns the index of the first case-insensitive occurrence of sub in s, or -1.
// An empty sub never matches.
func IndexFold(s []byte, sub string) int {
	n := len(sub)
	if n == 0 || n > len(s) {
		return -1
	}
	first := lower(sub[0])
	for i := 0; i+n <= len(s); i++ {
		if lower(s[i]) != first {
			continue
		}
		if EqualFoldString(s[i:i+n], sub) {
			return i
		}
	}
	return -1
}

// TrimLeftSpaceTab drops leading spaces and tabs.
func TrimLeftSpaceTab(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return b[i:]
}

// TrimRightSpaceTab drops trailing spaces and tabs.
func TrimRightSpaceTab(b []byte) []byte {
	j := len(b)
	for j > 0 && (b[j-1] == ' ' || b[j-1] == '\t') {
		j--
	}
	return b[:j]
}

// TrimSpaceTab drops leading and trailing spaces and tabs.
func TrimSpaceTab(b []byte) []byte {
	return TrimRightSpaceTab(TrimLeftSpaceTab(b))
}
