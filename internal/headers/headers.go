// Package headers parses raw header blocks into an immutable, ordered set of entries.
package headers

import (
	"github.com/danmuck/edgeparse/internal/bytesx"
)

const DefaultMaxNameLen = 1024

type Limits struct {
	MaxNameLen int
}

func DefaultLimits() Limits {
	return Limits{MaxNameLen: DefaultMaxNameLen}
}

// Entry is one header line. Name keeps the case it was received with.
type Entry struct {
	Name  string
	Value string
}

// Set holds entries in input order. It is not modified after construction and may be read
// from multiple goroutines.
type Set struct {
	entries []Entry
}

// NewSet builds a Set from a copy of entries.
func NewSet(entries ...Entry) *Set {
	return &Set{entries: append([]Entry(nil), entries...)}
}

// Get returns the value of the first entry whose name matches under ASCII case folding.
func (s *Set) Get(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, e := range s.entries {
		if equalFold(e.Name, name) {
			return e.Value, true
		}
	}
	return "", false
}

// Values returns every value for name in input order.
func (s *Set) Values(name string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, e := range s.entries {
		if equalFold(e.Name, name) {
			out = append(out, e.Value)
		}
	}
	return out
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of the entries.
func (s *Set) Entries() []Entry {
	if s == nil {
		return nil
	}
	return append([]Entry(nil), s.entries...)
}

func equalFold(a, b string) bool {
	return bytesx.EqualFoldString([]byte(a), b)
}

// Parse decodes data with DefaultLimits.
func Parse(data []byte) *Set {
	return ParseWithLimits(data, DefaultLimits())
}

// ParseWithLimits splits data into lines at CR, LF or CRLF and each line at its first ':'.
// Blank lines and lines without a colon are skipped. Names lose trailing spaces and tabs and
// are cut to MaxNameLen bytes; values lose surrounding spaces and tabs.
func ParseWithLimits(data []byte, limits Limits) *Set {
	if limits.MaxNameLen <= 0 {
		limits.MaxNameLen = DefaultMaxNameLen
	}
	set := &Set{}
	for len(data) > 0 {
		n := 0
		for n < len(data) && data[n] != '\r' && data[n] != '\n' {
			n++
		}
		line := data[:n]
		switch {
		case n+1 < len(data) && data[n] == '\r' && data[n+1] == '\n':
			data = data[n+2:]
		case n < len(data):
			data = data[n+1:]
		default:
			data = nil
		}

		colon := -1
		for i, c := range line {
			if c == ':' {
				colon = i
				break
			}
		}
		if colon < 0 {
			continue
		}
		name := bytesx.TrimRightSpaceTab(line[:colon])
		if len(name) > limits.MaxNameLen {
			name = name[:limits.MaxNameLen]
		}
		value := bytesx.TrimSpaceTab(line[colon+1:])
		set.entries = append(set.entries, Entry{Name: string(name), Value: string(value)})
	}
	return set
}
