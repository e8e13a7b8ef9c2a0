package wire

import (
	"bytes"

	"github.com/danmuck/edgeparse/internal/form"
	"github.com/valyala/bytebufferpool"
)

// EncodeForm returns the form buffer for pairs. An empty list encodes to an empty buffer.
func EncodeForm(pairs form.Pairs) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	out, err := AppendForm(buf.B, pairs)
	buf.B = out
	if err != nil {
		return nil, err
	}
	return bytes.Clone(buf.B), nil
}

// AppendForm appends the form records for pairs to dst.
func AppendForm(dst []byte, pairs form.Pairs) ([]byte, error) {
	var err error
	for _, p := range pairs {
		if dst, err = appendLen(dst, len(p.Key)); err != nil {
			return dst, err
		}
		if dst, err = appendLen(dst, len(p.Value)); err != nil {
			return dst, err
		}
		dst = append(dst, p.Key...)
		dst = append(dst, p.Value...)
	}
	return dst, nil
}

// DecodeForm reads every record in b.
func DecodeForm(b []byte) (form.Pairs, error) {
	var pairs form.Pairs
	i := 0
	for i < len(b) {
		if len(b)-i < formRecordHeaderLen {
			return nil, ErrTruncated
		}
		keyLen, valueLen := readLen(b, i), readLen(b, i+4)
		i += formRecordHeaderLen
		if uint64(len(b)-i) < uint64(keyLen)+uint64(valueLen) {
			return nil, ErrTruncated
		}
		key := string(b[i : i+keyLen])
		i += keyLen
		value := string(b[i : i+valueLen])
		i += valueLen
		pairs = append(pairs, form.Pair{Key: key, Value: value})
	}
	return pairs, nil
}
