package multipart

import "errors"

var (
	ErrNoBoundary = errors.New("multipart: no boundary found")
	ErrNoParts    = errors.New("multipart: no parts found")
)

// IsNotMultipart reports whether err means the body cannot be read as multipart and should
// be treated as opaque bytes instead.
func IsNotMultipart(err error) bool {
	return errors.Is(err, ErrNoBoundary) || errors.Is(err, ErrNoParts)
}
