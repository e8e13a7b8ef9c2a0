// Package wire encodes decoder results into flat byte buffers for hosts that cannot consume
// Go values, and decodes those buffers back.
//
// All integers are unsigned 32-bit in native byte order.
//
// Form buffer, repeated until the end of the buffer:
//
//	[keyLen][valueLen][key][value]
//
// Multipart buffer:
//
//	[partCount]
//	[nameLen][filenameLen][contentTypeLen][dataLen][isFile:u8][name][filename][contentType][data]
//
// Each multipart record is padded with zero bytes so the next record starts on a 4-byte
// boundary.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	formRecordHeaderLen = 8
	partRecordHeaderLen = 17
	partCountLen        = 4
	alignment           = 4
)

var (
	ErrTruncated     = errors.New("wire: truncated buffer")
	ErrInvalidLength = errors.New("wire: invalid length")
	ErrInvalidFlag   = errors.New("wire: invalid is_file flag")
	ErrFieldTooLarge = errors.New("wire: field exceeds u32 length")
)

func appendLen(dst []byte, n int) ([]byte, error) {
	if uint64(n) > math.MaxUint32 {
		return dst, ErrFieldTooLarge
	}
	return binary.NativeEndian.AppendUint32(dst, uint32(n)), nil
}

func readLen(b []byte, at int) int {
	return int(binary.NativeEndian.Uint32(b[at : at+4]))
}

func padding(n int) int {
	return (alignment - n%alignment) % alignment
}
