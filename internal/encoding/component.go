// Package encoding implements the escaping used for free-text operands in
// narrow link fragments.
//
// Operands are percent-encoded with the URI-component character set and then
// every '%' is written as '.', so an encoded topic such as "mobile team" reads
// "mobile.20team". Literal '.', '(' and ')' are always escaped, which keeps
// the scheme reversible.
package encoding

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrMalformed is matched by every error DecodeComponent returns.
var ErrMalformed = errors.New("malformed encoded component")

var errInvalidUTF8 = errors.New("invalid UTF-8")

// DecodingError reports an operand that is not valid encoded text.
type DecodingError struct {
	Input string
	Err   error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding component %q: %v", e.Input, e.Err)
}

func (e *DecodingError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}

// url.QueryEscape output differs from the URI-component set in how it
// writes spaces and in four sub-delimiters it escapes.
var uriComponent = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%2A", "*",
	"%27", "'",
)

// '(' and ')' reach this step as %28 and %29 and come out as .28 and .29.
var hashComponent = strings.NewReplacer(
	"%", ".",
	".", ".2E",
)

// EncodeComponent escapes text for use as a single fragment segment.
func EncodeComponent(text string) string {
	return hashComponent.Replace(uriComponent.Replace(url.QueryEscape(text)))
}

// DecodeComponent reverses EncodeComponent. It also accepts segments written
// by older servers that did not escape every reserved character.
func DecodeComponent(s string) (string, error) {
	out, err := url.PathUnescape(strings.ReplaceAll(s, ".", "%"))
	if err != nil {
		return "", &DecodingError{Input: s, Err: err}
	}

	if !utf8.ValidString(out) {
		return "", &DecodingError{Input: s, Err: errInvalidUTF8}
	}

	return out, nil
}
