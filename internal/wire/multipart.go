package wire

import (
	"bytes"

	"github.com/danmuck/edgeparse/internal/multipart"
	"github.com/valyala/bytebufferpool"
)

// EncodeMultipart returns the multipart buffer for parts. Part data is copied into the
// buffer, so the result does not borrow the decoded body.
func EncodeMultipart(parts []multipart.Part) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	out, err := AppendMultipart(buf.B, parts)
	buf.B = out
	if err != nil {
		return nil, err
	}
	return bytes.Clone(buf.B), nil
}

// AppendMultipart appends a multipart buffer to dst. Padding is computed relative to the
// start of the appended buffer.
func AppendMultipart(dst []byte, parts []multipart.Part) ([]byte, error) {
	base := len(dst)
	dst, err := appendLen(dst, len(parts))
	if err != nil {
		return dst, err
	}
	for _, p := range parts {
		for _, n := range []int{len(p.Name), len(p.Filename), len(p.ContentType), len(p.Data)} {
			if dst, err = appendLen(dst, n); err != nil {
				return dst, err
			}
		}
		flag := byte(0)
		if p.IsFile {
			flag = 1
		}
		dst = append(dst, flag)
		dst = append(dst, p.Name...)
		dst = append(dst, p.Filename...)
		dst = append(dst, p.ContentType...)
		dst = append(dst, p.Data...)
		for range padding(len(dst) - base) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}

// DecodeMultipart reads a multipart buffer. Returned parts own their data.
func DecodeMultipart(b []byte) ([]multipart.Part, error) {
	if len(b) < partCountLen {
		return nil, ErrTruncated
	}
	count := readLen(b, 0)
	if uint64(count)*partRecordHeaderLen > uint64(len(b)-partCountLen) {
		return nil, ErrInvalidLength
	}
	parts := make([]multipart.Part, 0, count)
	i := partCountLen
	for range count {
		if len(b)-i < partRecordHeaderLen {
			return nil, ErrTruncated
		}
		nameLen, filenameLen := readLen(b, i), readLen(b, i+4)
		ctLen, dataLen := readLen(b, i+8), readLen(b, i+12)
		flag := b[i+16]
		i += partRecordHeaderLen
		if flag > 1 {
			return nil, ErrInvalidFlag
		}
		total := uint64(nameLen) + uint64(filenameLen) + uint64(ctLen) + uint64(dataLen)
		if uint64(len(b)-i) < total {
			return nil, ErrTruncated
		}
		p := multipart.Part{IsFile: flag == 1}
		p.Name = string(b[i : i+nameLen])
		i += nameLen
		p.Filename = string(b[i : i+filenameLen])
		i += filenameLen
		p.ContentType = string(b[i : i+ctLen])
		i += ctLen
		p.Data = bytes.Clone(b[i : i+dataLen])
		if p.Data == nil {
			p.Data = []byte{}
		}
		i += dataLen
		pad := padding(i)
		if len(b)-i < pad {
			return nil, ErrTruncated
		}
		i += pad
		parts = append(parts, p)
	}
	if i != len(b) {
		return nil, ErrInvalidLength
	}
	return parts, nil
}
