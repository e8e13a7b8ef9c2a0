// Package form decodes application/x-www-form-urlencoded bodies into ordered pairs.
package form

import "github.com/danmuck/edgeparse/internal/bytesx"

// Pair is one decoded key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Pairs keeps pairs in order of appearance, duplicates included.
type Pairs []Pair

// Get returns the value of the first pair named key.
func (p Pairs) Get(key string) (string, bool) {
	for _, pair := range p {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for key, in order.
func (p Pairs) Values(key string) []string {
	var out []string
	for _, pair := range p {
		if pair.Key == key {
			out = append(out, pair.Value)
		}
	}
	return out
}

// Decode splits data at '&' and each segment at its first '=', percent-decoding both sides.
// A segment without '=' is a key with an empty value; empty segments are dropped.
func Decode(data []byte) Pairs {
	if len(data) == 0 {
		return nil
	}
	pairs := make(Pairs, 0, 8)
	scratch := make([]byte, 0, 64)
	keyStart, valueStart := 0, -1
	for i := 0; i <= len(data); i++ {
		c := byte('&') // virtual terminator after the last byte
		if i < len(data) {
			c = data[i]
		}
		switch {
		case c == '=' && valueStart == -1:
			valueStart = i + 1
		case c == '&':
			keyEnd := i
			if valueStart == -1 {
				if keyStart == i {
					keyStart = i + 1
					continue
				}
				valueStart = i
			} else {
				keyEnd = valueStart - 1
			}
			scratch = bytesx.PercentDecode(scratch[:0], data[keyStart:keyEnd])
			key := string(scratch)
			scratch = bytesx.PercentDecode(scratch[:0], data[valueStart:i])
			pairs = append(pairs, Pair{Key: key, Value: string(scratch)})
			keyStart, valueStart = i+1, -1
		}
	}
	return pairs
}
