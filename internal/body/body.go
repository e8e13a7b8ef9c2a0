// Package body classifies request bodies by their declared Content-Type.
package body

import (
	"github.com/danmuck/edgeparse/internal/bytesx"
)

// Kind values match the numeric codes hosts already use for body types.
type Kind int

const (
	KindUnknown Kind = iota
	KindJSON
	KindForm
	KindMultipart
	KindText
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindForm:
		return "form"
	case KindMultipart:
		return "multipart"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Classify maps a Content-Type to a Kind. Only the declared type is inspected, except that
// a JSON body must open with '{' or '[' after leading whitespace; anything else is
// KindUnknown. Unrecognised types, including an empty one, are KindBinary.
func Classify(contentType string, data []byte) Kind {
	ct := []byte(contentType)
	switch {
	case bytesx.IndexFold(ct, "application/json") >= 0:
		if opensContainer(data) {
			return KindJSON
		}
		return KindUnknown
	case bytesx.IndexFold(ct, "application/x-www-form-urlencoded") >= 0:
		return KindForm
	case bytesx.IndexFold(ct, "multipart/form-data") >= 0:
		return KindMultipart
	case bytesx.IndexFold(ct, "text/") >= 0:
		return KindText
	default:
		return KindBinary
	}
}

func opensContainer(data []byte) bool {
	for _, c := range data {
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			continue
		}
		return c == '{' || c == '['
	}
	return false
}
