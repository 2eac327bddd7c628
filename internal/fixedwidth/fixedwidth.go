// =============================================================================
// Product Feed - Fixed-Width Slicing
// =============================================================================
//
// This package slices a fixed-width line by byte offset and converts each
// slice to a typed value. Offsets are 0-based and half-open: a Span of
// {Start: 9, End: 68} covers bytes 9 through 67.
//
// CONVERSION:
//   The conversion applied to a slice is always passed explicitly as a
//   Converter. Integer, Flags and Text cover the field types of the product
//   layout; DecodedText additionally decodes a legacy single-byte charset
//   after the bytes have been cut, so multi-byte UTF-8 output never shifts
//   the offsets of later fields.
//
// ERRORS:
//   Every failure names the field and carries the offending text or
//   position, so the bad byte range can be found without the original line.
//
// =============================================================================

package fixedwidth

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// =============================================================================
// LAYOUT
// =============================================================================

// Span is the byte range of one field.
type Span struct {
	Name  string
	Start int
	End   int
}

// Width returns the number of bytes in the span.
func (s Span) Width() int { return s.End - s.Start }

// String returns "name [start, end)".
func (s Span) String() string {
	return fmt.Sprintf("%s [%d, %d)", s.Name, s.Start, s.End)
}

// Layout is the ordered set of spans of one line format.
type Layout struct {
	spans     []Span
	minLength int
}

// NewLayout returns a layout over spans. Overlapping or inverted spans are a
// programming error and panic.
func NewLayout(spans ...Span) Layout {
	l := Layout{spans: append([]Span(nil), spans...)}
	for i, s := range l.spans {
		if s.Start < 0 || s.End <= s.Start {
			panic(fmt.Sprintf("fixedwidth: invalid span %s", s))
		}
		for _, o := range l.spans[:i] {
			if s.Start < o.End && o.Start < s.End {
				panic(fmt.Sprintf("fixedwidth: span %s overlaps %s", s, o))
			}
		}
		if s.End > l.minLength {
			l.minLength = s.End
		}
	}
	return l
}

// Spans returns the spans in declaration order.
func (l Layout) Spans() []Span {
	return append([]Span(nil), l.spans...)
}

// MinLength returns the shortest line that holds every span.
func (l Layout) MinLength() int { return l.minLength }

// Check rejects lines too short for the layout.
func (l Layout) Check(line string) error {
	if len(line) < l.minLength {
		return &TooShortError{Length: len(line), MinLength: l.minLength}
	}
	return nil
}

// =============================================================================
// SLICING
// =============================================================================

// Converter turns the raw text of a field into a typed value. field is the
// field name, for error reporting.
type Converter[T any] func(field, raw string) (T, error)

// Slice cuts span out of line and converts it. The line must already have
// passed Layout.Check.
func Slice[T any](line string, span Span, convert Converter[T]) (T, error) {
	if span.End > len(line) {
		var zero T
		return zero, &TooShortError{Length: len(line), MinLength: span.End}
	}
	return convert(span.Name, line[span.Start:span.End])
}

// =============================================================================
// CONVERTERS
// =============================================================================

// Integer parses a signed base-10 integer. The text is used verbatim: padding
// spaces are not trimmed, so a blank numeric field is a format error.
func Integer(field, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &NumberFormatError{Field: field, Value: raw}
	}
	return v, nil
}

// Flags parses a run of 'Y'/'N' characters.
func Flags(field, raw string) ([]bool, error) {
	flags := make([]bool, len(raw))
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case 'Y':
			flags[i] = true
		case 'N':
			flags[i] = false
		default:
			c, _ := utf8.DecodeRuneInString(raw[i:])
			return nil, &FlagFormatError{Field: field, Position: i + 1, Char: c}
		}
	}
	return flags, nil
}

// Text returns the slice with surrounding whitespace removed.
func Text(field, raw string) (string, error) {
	return strings.TrimSpace(raw), nil
}

// DecodedText returns a converter that decodes the slice from enc before
// trimming it. A nil enc behaves like Text.
func DecodedText(enc encoding.Encoding) Converter[string] {
	if enc == nil {
		return Text
	}
	return func(field, raw string) (string, error) {
		decoded, err := enc.NewDecoder().String(raw)
		if err != nil {
			return "", &TextEncodingError{Field: field, Value: raw, Err: err}
		}
		return strings.TrimSpace(decoded), nil
	}
}
