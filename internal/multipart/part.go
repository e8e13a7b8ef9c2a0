package multipart

import "bytes"

// Part is one decoded body part. Empty strings mean the attribute was absent.
// Data borrows the input buffer, see the package documentation.
type Part struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
	IsFile      bool
}

// Clone returns a copy of p whose Data no longer references the input buffer.
func (p Part) Clone() Part {
	p.Data = bytes.Clone(p.Data)
	if p.Data == nil {
		p.Data = []byte{}
	}
	return p
}

// Detach clones every part in place and returns parts.
func Detach(parts []Part) []Part {
	for i := range parts {
		parts[i] = parts[i].Clone()
	}
	return parts
}
