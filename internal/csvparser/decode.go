package csvparser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/ginjaninja78/csv2ods/internal/config"
)

// utf8BOM is dropped from the start of UTF-8 input.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// replacementChar is U+FFFD in UTF-8. x/text decoders emit it for bytes they
// cannot map instead of failing.
var replacementChar = []byte("\uFFFD")

// fieldDecoder turns raw field bytes into text.
type fieldDecoder struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
}

// newFieldDecoder looks the encoding up by its WHATWG label first and its IANA
// name second. Python-style spellings such as "latin_1" are tried with the
// separators removed.
func newFieldDecoder(name string) (*fieldDecoder, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "", "utf-8", "utf8", "utf_8":
		return &fieldDecoder{name: "utf-8"}, nil
	}

	enc, err := lookupEncoding(normalized)
	if err != nil {
		return nil, &config.ConfigurationError{
			Field:   "encoding",
			Message: fmt.Sprintf("unknown encoding %q", name),
		}
	}

	d := &fieldDecoder{name: normalized, enc: enc}

	// The reader splits fields on raw bytes, so the encoding must keep ASCII
	// where ASCII is.
	if s, err := d.decode([]byte(",\"a")); err != nil || s != ",\"a" {
		return nil, &config.ConfigurationError{
			Field:   "encoding",
			Message: fmt.Sprintf("encoding %q is not ASCII-compatible", name),
		}
	}

	return d, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	candidates := []string{name}
	if compact := strings.NewReplacer("_", "", "-", "").Replace(name); compact != name {
		candidates = append(candidates, compact)
	}
	if dashed := strings.ReplaceAll(name, "_", "-"); dashed != name {
		candidates = append(candidates, dashed)
	}

	for _, candidate := range candidates {
		if enc, err := htmlindex.Get(candidate); err == nil {
			return enc, nil
		}
		if enc, err := ianaindex.IANA.Encoding(candidate); err == nil && enc != nil {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// isUTF8 reports whether the decoder is the strict UTF-8 passthrough.
func (d *fieldDecoder) isUTF8() bool {
	return d.enc == nil
}

// decode returns the field as a Go string. UTF-8 input is validated strictly;
// other encodings fail when the decoder had to substitute U+FFFD for bytes
// that were not already an encoded U+FFFD.
func (d *fieldDecoder) decode(raw []byte) (string, error) {
	if d.enc == nil {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("invalid UTF-8 sequence")
		}
		return string(raw), nil
	}

	out, err := d.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	if bytes.Contains(out, replacementChar) && !bytes.Contains(raw, replacementChar) {
		return "", fmt.Errorf("byte sequence not defined in %s", d.name)
	}
	return string(out), nil
}
