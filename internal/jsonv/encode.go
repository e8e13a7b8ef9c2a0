package jsonv

import (
	"maps"
	"math"
	"slices"
	"strconv"
)

const hexDigits = "0123456789abcdef"

// Escape appends s to dst with JSON string escaping applied, without surrounding quotes.
// Quote, backslash and the named control characters use their short escapes; other bytes
// below 0x20 become \u00XX. Everything else, including multi-byte UTF-8, is copied as is.
func Escape(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
				continue
			}
			dst = append(dst, c)
		}
	}
	return dst
}

// AppendJSON appends the JSON encoding of v to dst. Object members are written in sorted key
// order. Floats always carry a '.' or exponent so they parse back as floats; NaN and
// infinities have no JSON form and are written as null.
func (v Value) AppendJSON(dst []byte) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindInt:
		return strconv.AppendInt(dst, v.i, 10)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return append(dst, "null"...)
		}
		start := len(dst)
		dst = strconv.AppendFloat(dst, v.f, 'g', -1, 64)
		if !slices.ContainsFunc(dst[start:], func(c byte) bool { return c == '.' || c == 'e' }) {
			dst = append(dst, '.', '0')
		}
		return dst
	case KindString:
		dst = append(dst, '"')
		dst = Escape(dst, v.s)
		return append(dst, '"')
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = item.AppendJSON(dst)
		}
		return append(dst, ']')
	case KindObject:
		dst = append(dst, '{')
		for i, k := range slices.Sorted(maps.Keys(v.obj)) {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, '"')
			dst = Escape(dst, k)
			dst = append(dst, '"', ':')
			dst = v.obj[k].AppendJSON(dst)
		}
		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

// MarshalJSON lets Values pass through encoding/json compatible encoders.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil), nil
}
