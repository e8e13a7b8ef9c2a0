package multipart

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/edgeparse/internal/testutil/testlog"
)

const twoPartBody = "--XyZ\r\n" +
	"Content-Disposition: form-data; name=\"field1\"\r\n" +
	"\r\n" +
	"value1\r\n" +
	"--XyZ\r\n" +
	"Content-Disposition: form-data; name=\"file\"; filename=\"test.txt\"\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"hello\r\n" +
	"--XyZ--\r\n"

func partBody(boundary string, fields ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(fields); i += 2 {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Disposition: form-data; name=\"" + fields[i] + "\"\r\n\r\n")
		b.WriteString(fields[i+1] + "\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")
	return b.String()
}

func TestDecodeTwoParts(t *testing.T) {
	testlog.Start(t)
	parts, err := Decode([]byte(twoPartBody))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}

	field := parts[0]
	if field.Name != "field1" || field.IsFile || field.Filename != "" || field.ContentType != "" {
		t.Fatalf("unexpected field part: %+v", field)
	}
	if string(field.Data) != "value1" {
		t.Fatalf("unexpected field data: %q", field.Data)
	}

	file := parts[1]
	if file.Name != "file" || file.Filename != "test.txt" || !file.IsFile {
		t.Fatalf("unexpected file part: %+v", file)
	}
	if file.ContentType != "text/plain" {
		t.Fatalf("unexpected content type: %q", file.ContentType)
	}
	if string(file.Data) != "hello" {
		t.Fatalf("unexpected file data: %q", file.Data)
	}
}

func TestDecodeBrowserStyleBoundary(t *testing.T) {
	testlog.Start(t)
	body := partBody("----WebKitFormBoundary7MA4YWxkTrZu0gW", "a", "1", "b", "two words")
	parts, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parts) != 2 || parts[0].Name != "a" || string(parts[1].Data) != "two words" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestDecodeSkipsPreamble(t *testing.T) {
	testlog.Start(t)
	body := "this is a preamble -- not a boundary\r\n" + partBody("sep", "k", "v")
	parts, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parts) != 1 || parts[0].Name != "k" || string(parts[0].Data) != "v" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestDecodeFilenameBeforeName(t *testing.T) {
	testlog.Start(t)
	body := "--b\r\nContent-Disposition: form-data; filename=\"a.bin\"; name=\"upload\"\r\n\r\nxyz\r\n--b--"
	parts, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if parts[0].Name != "upload" || parts[0].Filename != "a.bin" || !parts[0].IsFile {
		t.Fatalf("unexpected part: %+v", parts[0])
	}
}

func TestDecodeHeaderNamesAreCaseInsensitive(t *testing.T) {
	testlog.Start(t)
	body := "--b\r\ncontent-disposition: form-data; name=\"x\"\r\nCONTENT-TYPE:\tapplication/json\r\nX-Other: ignored\r\n\r\n{}\r\n--b--"
	parts, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if parts[0].Name != "x" || parts[0].ContentType != "application/json" || string(parts[0].Data) != "{}" {
		t.Fatalf("unexpected part: %+v", parts[0])
	}
}

func TestDecodeImplicitEnd(t *testing.T) {
	testlog.Start(t)
	body := "--b\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n1\r\n--b\r\nContent-Disposition: form-data; name=\"tail\"\r\n\r\nno closing marker"
	parts, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parts) != 2 || string(parts[1].Data) != "no closing marker" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestDecodeKeepsEmptyParts(t *testing.T) {
	testlog.Start(t)
	parts, err := Decode([]byte(partBody("b", "empty", "", "full", "x")))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parts) != 2 || parts[0].Name != "empty" || len(parts[0].Data) != 0 {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestDecodeMaxPartsStopsWithoutError(t *testing.T) {
	testlog.Start(t)
	body := partBody("b", "p1", "1", "p2", "2", "p3", "3", "p4", "4", "p5", "5")
	parts, err := DecodeWithLimits([]byte(body), Limits{MaxParts: 3})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parts) != 3 || parts[2].Name != "p3" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestDecodeNotMultipart(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		in   string
		want error
	}{
		{in: "", want: ErrNoBoundary},
		{in: "plain text body", want: ErrNoBoundary},
		{in: "--" + strings.Repeat("a", 201) + "\r\n", want: ErrNoBoundary},
		{in: "--b\r\n", want: ErrNoParts},
		{in: "--b--\r\n", want: ErrNoParts},
	}
	for _, tc := range cases {
		_, err := Decode([]byte(tc.in))
		if !errors.Is(err, tc.want) {
			t.Fatalf("Decode(%q): expected %v, got %v", tc.in, tc.want, err)
		}
		if !IsNotMultipart(err) {
			t.Fatalf("Decode(%q): expected IsNotMultipart", tc.in)
		}
	}
	if IsNotMultipart(nil) || IsNotMultipart(errors.New("other")) {
		t.Fatalf("IsNotMultipart matched an unrelated error")
	}
}

func TestBoundaryLengthLimits(t *testing.T) {
	testlog.Start(t)
	long := strings.Repeat("z", 200)
	if _, err := Decode([]byte(partBody(long, "k", "v"))); err != nil {
		t.Fatalf("200-byte boundary should decode: %v", err)
	}
	if _, err := DecodeWithLimits([]byte(partBody("0123456789", "k", "v")), Limits{MaxBoundaryLen: 8}); !errors.Is(err, ErrNoBoundary) {
		t.Fatalf("expected ErrNoBoundary for long token, got %v", err)
	}
}

func TestParameterAndContentTypeCaps(t *testing.T) {
	testlog.Start(t)
	ct := strings.Repeat("c", 255)
	body := "--b\r\nContent-Disposition: form-data; name=\"" + strings.Repeat("n", 1024) + "\"\r\nContent-Type: " + ct + "\r\n\r\nd\r\n--b--"
	parts, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if parts[0].Name != "" {
		t.Fatalf("expected oversized name to be dropped, got %d bytes", len(parts[0].Name))
	}
	if parts[0].ContentType != ct {
		t.Fatalf("expected 255-byte content type to be kept")
	}

	body = strings.Replace(body, ct, ct+"c", 1)
	parts, err = Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if parts[0].ContentType != "" {
		t.Fatalf("expected 256-byte content type to be dropped")
	}
}

func TestDataBorrowsInputUntilCloned(t *testing.T) {
	testlog.Start(t)
	buf := []byte(twoPartBody)
	parts, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cloned := parts[1].Clone()
	detached := Detach([]Part{parts[0]})

	parts[1].Data[0] = 'J'
	if buf[strings.Index(twoPartBody, "hello")] != 'J' {
		t.Fatalf("expected Data to alias the input buffer")
	}
	if string(cloned.Data) != "hello" {
		t.Fatalf("clone changed with input: %q", cloned.Data)
	}
	for i := range buf {
		buf[i] = '#'
	}
	if string(detached[0].Data) != "value1" {
		t.Fatalf("detached part changed with input: %q", detached[0].Data)
	}
}

func TestDataCannotGrowIntoInput(t *testing.T) {
	testlog.Start(t)
	buf := []byte(twoPartBody)
	parts, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	_ = append(parts[0].Data, '!')
	if !strings.HasPrefix(string(buf[strings.Index(twoPartBody, "value1")+6:]), "\r\n--XyZ") {
		t.Fatalf("append through Data overwrote the input buffer")
	}
}

func TestDecodeBoundaryAndContentType(t *testing.T) {
	testlog.Start(t)
	boundary, ok := BoundaryFromContentType(`multipart/form-data; boundary="XyZ"`)
	if !ok || boundary != "XyZ" {
		t.Fatalf("unexpected boundary: %q ok=%v", boundary, ok)
	}
	parts, err := DecodeBoundary([]byte(twoPartBody), boundary, DefaultLimits())
	if err != nil || len(parts) != 2 {
		t.Fatalf("decode with boundary: parts=%d err=%v", len(parts), err)
	}

	if _, ok := BoundaryFromContentType("text/plain; boundary=x"); ok {
		t.Fatalf("expected non-multipart type to report no boundary")
	}
	if _, ok := BoundaryFromContentType("multipart/form-data"); ok {
		t.Fatalf("expected missing boundary parameter to report no boundary")
	}
	if _, err := DecodeBoundary([]byte(twoPartBody), "", DefaultLimits()); !errors.Is(err, ErrNoBoundary) {
		t.Fatalf("expected ErrNoBoundary for empty boundary, got %v", err)
	}
	if _, err := DecodeBoundary([]byte(twoPartBody), "nope", DefaultLimits()); !errors.Is(err, ErrNoParts) {
		t.Fatalf("expected ErrNoParts for unmatched boundary, got %v", err)
	}
}
