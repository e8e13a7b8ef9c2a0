package multipart

import (
	"bytes"
	"mime"
	"strings"

	"github.com/danmuck/edgeparse/internal/bytesx"
)

var (
	dashes = []byte("--")
	crlf   = []byte("\r\n")
)

// Decode discovers the boundary from data and decodes every part with DefaultLimits.
func Decode(data []byte) ([]Part, error) {
	return DecodeWithLimits(data, DefaultLimits())
}

func DecodeWithLimits(data []byte, limits Limits) ([]Part, error) {
	limits = limits.normalized()
	boundary := discoverBoundary(data, limits)
	if boundary == nil {
		return nil, ErrNoBoundary
	}
	return decodeParts(data, boundary, limits)
}

// DecodeBoundary decodes data using a boundary already known from the request's
// Content-Type instead of discovering one.
func DecodeBoundary(data []byte, boundary string, limits Limits) ([]Part, error) {
	limits = limits.normalized()
	if boundary == "" || len(boundary) > limits.MaxBoundaryLen {
		return nil, ErrNoBoundary
	}
	return decodeParts(data, []byte(boundary), limits)
}

// BoundaryFromContentType returns the boundary parameter of a multipart Content-Type.
func BoundaryFromContentType(contentType string) (string, bool) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return "", false
	}
	boundary := params["boundary"]
	return boundary, boundary != ""
}

// discoverBoundary looks for a line starting with "--" whose remainder, up to a line
// terminator within the lookahead window, is usable as the boundary token.
func discoverBoundary(data []byte, limits Limits) []byte {
	for pos := 0; pos+2 <= len(data); {
		i := bytes.Index(data[pos:], dashes)
		if i < 0 {
			return nil
		}
		at := pos + i
		pos = at + 1
		if at > 0 && data[at-1] != '\n' {
			continue
		}
		start := at + 2
		window := data[start:min(len(data), start+limits.BoundaryLookahead+1)]
		end := bytes.IndexAny(window, "\r\n")
		if end < 0 {
			continue
		}
		token := window[:end]
		if len(token) > 2 && bytes.HasSuffix(token, dashes) {
			token = token[:len(token)-2]
		}
		if len(token) == 0 || len(token) > limits.MaxBoundaryLen {
			continue
		}
		return token
	}
	return nil
}

func decodeParts(data, boundary []byte, limits Limits) ([]Part, error) {
	marker := make([]byte, 0, len(boundary)+2)
	marker = append(append(marker, dashes...), boundary...)

	var parts []Part
	pos := 0
	for len(parts) < limits.MaxParts {
		i := bytes.Index(data[pos:], marker)
		if i < 0 {
			break
		}
		cursor := pos + i + len(marker)
		if bytes.HasPrefix(data[cursor:], dashes) {
			break
		}
		cursor = skipLineTerminator(data, cursor)
		if cursor >= len(data) {
			break
		}

		var part Part
		cursor = readHeaders(data, cursor, &part, limits)

		end := len(data)
		next := bytes.Index(data[cursor:], marker)
		if next >= 0 {
			end = cursor + next
			if end-2 >= cursor && bytes.Equal(data[end-2:end], crlf) {
				end -= 2
			}
		}
		part.Data = data[cursor:end:end]
		parts = append(parts, part)
		if next < 0 {
			break
		}
		pos = cursor + next
	}
	if len(parts) == 0 {
		return nil, ErrNoParts
	}
	return parts, nil
}

func skipLineTerminator(data []byte, i int) int {
	switch {
	case i+1 < len(data) && data[i] == '\r' && data[i+1] == '\n':
		return i + 2
	case i < len(data) && (data[i] == '\r' || data[i] == '\n'):
		return i + 1
	}
	return i
}

// readHeaders consumes CRLF-terminated header lines up to and including the blank line and
// returns the offset where content begins. A block with no terminating line ends where the
// last complete line ends.
func readHeaders(data []byte, cursor int, part *Part, limits Limits) int {
	for cursor < len(data) {
		n := bytes.Index(data[cursor:], crlf)
		if n < 0 {
			return cursor
		}
		line := data[cursor : cursor+n]
		cursor += n + 2
		if len(line) == 0 {
			return cursor
		}
		switch {
		case bytesx.HasPrefixFold(line, "content-disposition:"):
			v := bytesx.TrimLeftSpaceTab(line[len("content-disposition:"):])
			if name, ok := quotedParam(v, "name", limits.MaxParamLen); ok {
				part.Name = name
			}
			if filename, ok := quotedParam(v, "filename", limits.MaxParamLen); ok {
				part.Filename = filename
				part.IsFile = true
			}
		case bytesx.HasPrefixFold(line, "content-type:"):
			v := bytesx.TrimLeftSpaceTab(line[len("content-type:"):])
			if len(v) > 0 && len(v) < limits.MaxContentTypeLen {
				part.ContentType = string(v)
			}
		}
	}
	return cursor
}

// quotedParam extracts key="value" from a header value. The key must not be the tail of a
// longer parameter name, so "name" never matches inside "filename".
func quotedParam(v []byte, key string, maxLen int) (string, bool) {
	pattern := key + `="`
	for from := 0; from < len(v); {
		i := bytesx.IndexFold(v[from:], pattern)
		if i < 0 {
			return "", false
		}
		at := from + i
		if at > 0 && isParamNameByte(v[at-1]) {
			from = at + 1
			continue
		}
		start := at + len(pattern)
		n := bytes.IndexByte(v[start:], '"')
		if n <= 0 || n >= maxLen {
			return "", false
		}
		return string(v[start : start+n]), true
	}
	return "", false
}

func isParamNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '*' || c == '.'
}
