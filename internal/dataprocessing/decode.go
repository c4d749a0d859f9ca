package dataprocessing

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

var (
	utf8BOM         = []byte{0xEF, 0xBB, 0xBF}
	replacementChar = []byte(string(utf8.RuneError))
)

// DecodeResult is decoded UTF-8 text plus the encodings that were attempted
type DecodeResult struct {
	Text     []byte
	Encoding string
	Tried    []string
}

// DecodeText decodes raw bytes with the first encoding that produces clean
// UTF-8. Decoders in x/text substitute U+FFFD for invalid input instead of
// failing, so an introduced replacement character counts as a failure.
func DecodeText(raw []byte, encodings []string) (DecodeResult, error) {
	var (
		res     DecodeResult
		lastErr error
	)
	hadReplacement := bytes.Contains(raw, replacementChar)

	for _, name := range encodings {
		name = strings.ToLower(strings.TrimSpace(name))
		res.Tried = append(res.Tried, name)

		enc, err := htmlindex.Get(name)
		if err != nil {
			lastErr = fmt.Errorf("unknown encoding %q: %w", name, err)
			continue
		}

		decoded, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", name, err)
			continue
		}
		if !hadReplacement && bytes.Contains(decoded, replacementChar) {
			lastErr = fmt.Errorf("%s: invalid byte sequence", name)
			continue
		}

		res.Text = bytes.TrimPrefix(decoded, utf8BOM)
		res.Encoding = name
		return res, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no encodings configured")
	}
	return res, lastErr
}
