package runner

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	adberrors "adbconn/internal/errors"
)

// DefaultEncoding is what adb output is decoded as unless configured.
const DefaultEncoding = "utf-8"

// Decoder turns captured bytes into text.  UTF-8 is validated strictly;
// any other IANA charset is decoded with golang.org/x/text.
type Decoder struct {
	name string
	enc  encoding.Encoding // nil for strict UTF-8
}

// NewDecoder returns a Decoder for the named charset.  An empty name
// means UTF-8.
func NewDecoder(name string) (*Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return &Decoder{name: DefaultEncoding}, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return &Decoder{name: name, enc: enc}, nil
}

// Name returns the charset name.
func (d *Decoder) Name() string { return d.name }

// Decode converts b.  call names the adb call in errors.
func (d *Decoder) Decode(call string, b []byte) (string, error) {
	if d == nil || d.enc == nil {
		if !utf8.Valid(b) {
			return "", &adberrors.DecodeError{
				Call:     call,
				Encoding: DefaultEncoding,
				Err:      fmt.Errorf("invalid byte at offset %d", invalidOffset(b)),
			}
		}
		return string(b), nil
	}
	out, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", &adberrors.DecodeError{Call: call, Encoding: d.name, Err: err}
	}
	return string(out), nil
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

// TrimTerminator strips exactly one trailing "\n" or "\r\n".
func TrimTerminator(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
		if n := len(b); n > 0 && b[n-1] == '\r' {
			b = b[:n-1]
		}
	}
	return b
}

// TrimTerminatorString is TrimTerminator for strings.
func TrimTerminatorString(s string) string {
	if strings.HasSuffix(s, "\n") {
		return string(TrimTerminator([]byte(s)))
	}
	return s
}
