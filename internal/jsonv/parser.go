package jsonv

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/danmuck/edgeparse/internal/bytesx"
)

// Limits bounds the resources one Parse call may spend on untrusted input.
type Limits struct {
	MaxDepth     int
	MaxNumberLen int
}

func DefaultLimits() Limits {
	return Limits{
		MaxDepth:     512,
		MaxNumberLen: 64,
	}
}

func (l Limits) normalized() Limits {
	def := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	if l.MaxNumberLen <= 0 {
		l.MaxNumberLen = def.MaxNumberLen
	}
	return l
}

// Parse decodes exactly one JSON value from data using DefaultLimits.
func Parse(data []byte) (Value, error) {
	return ParseWithLimits(data, DefaultLimits())
}

// ParseWithLimits decodes exactly one JSON value from data. Whitespace around the value is
// ignored; anything else after it is ErrTrailingData. Zero limit fields take defaults.
func ParseWithLimits(data []byte, limits Limits) (Value, error) {
	p := parser{data: data, limits: limits.normalized()}
	v, err := p.value()
	if err != nil {
		return Value{}, err
	}
	p.skipWhitespace()
	if p.pos < len(p.data) {
		return Value{}, p.fail(ErrTrailingData)
	}
	return v, nil
}

var (
	literalTrue  = []byte("true")
	literalFalse = []byte("false")
	literalNull  = []byte("null")
)

type parser struct {
	data   []byte
	pos    int
	depth  int
	limits Limits
}

func (p *parser) fail(err error) error {
	return p.failAt(err, p.pos)
}

func (p *parser) failAt(err error, offset int) error {
	return &SyntaxError{Err: err, Offset: offset}
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) value() (Value, error) {
	p.skipWhitespace()
	if p.pos >= len(p.data) {
		return Value{}, p.fail(ErrUnexpectedEnd)
	}
	switch c := p.data[p.pos]; c {
	case '{':
		return p.object()
	case '[':
		return p.array()
	case '"':
		s, err := p.string()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case 't':
		return p.literal(literalTrue, Bool(true))
	case 'f':
		return p.literal(literalFalse, Bool(false))
	case 'n':
		return p.literal(literalNull, Null())
	default:
		if c == '-' || isDigit(c) {
			return p.number()
		}
		return Value{}, p.fail(ErrUnexpectedToken)
	}
}

func (p *parser) literal(lit []byte, v Value) (Value, error) {
	if !bytes.HasPrefix(p.data[p.pos:], lit) {
		return Value{}, p.fail(ErrUnexpectedToken)
	}
	p.pos += len(lit)
	return v, nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.limits.MaxDepth {
		return p.fail(ErrTooDeeplyNested)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) object() (Value, error) {
	if err := p.enter(); err != nil {
		return Value{}, err
	}
	defer p.leave()

	p.pos++ // '{'
	fields := make(map[string]Value)
	p.skipWhitespace()
	if p.pos < len(p.data) && p.data[p.pos] == '}' {
		p.pos++
		return Object(fields), nil
	}

	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return Value{}, p.fail(ErrUnexpectedEnd)
		}
		if p.data[p.pos] != '"' {
			return Value{}, p.fail(ErrMalformedObject)
		}
		key, err := p.string()
		if err != nil {
			return Value{}, err
		}

		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return Value{}, p.fail(ErrUnexpectedEnd)
		}
		if p.data[p.pos] != ':' {
			return Value{}, p.fail(ErrMalformedObject)
		}
		p.pos++

		member, err := p.value()
		if err != nil {
			return Value{}, err
		}
		fields[key] = member

		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return Value{}, p.fail(ErrUnexpectedEnd)
		}
		switch p.data[p.pos] {
		case '}':
			p.pos++
			return Object(fields), nil
		case ',':
			p.pos++
		default:
			return Value{}, p.fail(ErrUnexpectedToken)
		}
	}
}

func (p *parser) array() (Value, error) {
	if err := p.enter(); err != nil {
		return Value{}, err
	}
	defer p.leave()

	p.pos++ // '['
	items := make([]Value, 0, 4)
	p.skipWhitespace()
	if p.pos < len(p.data) && p.data[p.pos] == ']' {
		p.pos++
		return Array(items...), nil
	}

	for {
		item, err := p.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)

		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return Value{}, p.fail(ErrUnexpectedEnd)
		}
		switch p.data[p.pos] {
		case ']':
			p.pos++
			return Array(items...), nil
		case ',':
			p.pos++
		default:
			return Value{}, p.fail(ErrUnexpectedToken)
		}
	}
}

// string decodes the string starting at the opening quote under p.pos.
func (p *parser) string() (string, error) {
	start := p.pos + 1
	end := start
	escaped := false
	for end < len(p.data) && p.data[end] != '"' {
		if p.data[end] == '\\' {
			escaped = true
			end++
		}
		end++
	}
	if end >= len(p.data) {
		return "", p.fail(ErrUnterminatedString)
	}
	if !escaped {
		p.pos = end + 1
		return string(p.data[start:end]), nil
	}

	// A backslash always has its escaped byte before end, so j+1 < end below.
	out := make([]byte, 0, end-start)
	for j := start; j < end; {
		c := p.data[j]
		if c != '\\' {
			out = append(out, c)
			j++
			continue
		}
		switch esc := p.data[j+1]; esc {
		case '"', '\\', '/':
			out = append(out, esc)
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			r, n, err := p.unicodeEscape(j, end)
			if err != nil {
				return "", err
			}
			out = utf8.AppendRune(out, r)
			j += n
			continue
		default:
			return "", p.failAt(ErrInvalidEscape, j)
		}
		j += 2
	}
	p.pos = end + 1
	return string(out), nil
}

// unicodeEscape decodes the \uXXXX escape at j (and its low surrogate partner when the first
// unit is a high surrogate). It returns the code point and the escape bytes consumed.
func (p *parser) unicodeEscape(j, end int) (rune, int, error) {
	hi, ok := hex4(p.data, j+2, end)
	if !ok {
		return 0, 0, p.failAt(ErrInvalidEscape, j)
	}
	switch {
	case hi >= 0xDC00 && hi <= 0xDFFF:
		return 0, 0, p.failAt(ErrInvalidSurrogatePair, j)
	case hi < 0xD800 || hi > 0xDBFF:
		return hi, 6, nil
	}

	k := j + 6
	if k+1 >= end || p.data[k] != '\\' || p.data[k+1] != 'u' {
		return 0, 0, p.failAt(ErrInvalidSurrogatePair, j)
	}
	lo, ok := hex4(p.data, k+2, end)
	if !ok {
		return 0, 0, p.failAt(ErrInvalidEscape, k)
	}
	if lo < 0xDC00 || lo > 0xDFFF {
		return 0, 0, p.failAt(ErrInvalidSurrogatePair, j)
	}
	return 0x10000 + (hi-0xD800)<<10 + (lo - 0xDC00), 12, nil
}

func hex4(data []byte, at, end int) (rune, bool) {
	if at+4 > end {
		return 0, false
	}
	var r rune
	for i := at; i < at+4; i++ {
		d, ok := bytesx.HexValue(data[i])
		if !ok {
			return 0, false
		}
		r = r<<4 | rune(d)
	}
	return r, true
}

func (p *parser) number() (Value, error) {
	start := p.pos
	i := start
	n := len(p.data)
	if p.data[i] == '-' {
		i++
	}

	digits := i
	for i < n && isDigit(p.data[i]) {
		i++
	}
	if i == digits {
		return Value{}, p.failAt(ErrInvalidNumber, start)
	}

	isFloat := false
	if i < n && p.data[i] == '.' {
		isFloat = true
		i++
		frac := i
		for i < n && isDigit(p.data[i]) {
			i++
		}
		if i == frac {
			return Value{}, p.failAt(ErrInvalidNumber, start)
		}
	}
	if i < n && (p.data[i] == 'e' || p.data[i] == 'E') {
		isFloat = true
		i++
		if i < n && (p.data[i] == '+' || p.data[i] == '-') {
			i++
		}
		exp := i
		for i < n && isDigit(p.data[i]) {
			i++
		}
		if i == exp {
			return Value{}, p.failAt(ErrInvalidNumber, start)
		}
	}

	if i-start > p.limits.MaxNumberLen {
		return Value{}, p.failAt(ErrNumberTooLong, start)
	}
	lit := string(p.data[start:i])
	p.pos = i

	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0) {
				return Value{}, p.failAt(ErrNumberOutOfRange, start)
			}
			if !errors.Is(err, strconv.ErrRange) {
				return Value{}, p.failAt(ErrInvalidNumber, start)
			}
		}
		return Float(f), nil
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return Value{}, p.failAt(ErrNumberOutOfRange, start)
		}
		return Value{}, p.failAt(ErrInvalidNumber, start)
	}
	return Int(v), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
