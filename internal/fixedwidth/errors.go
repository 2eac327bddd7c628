package fixedwidth

import "fmt"

// TooShortError reports a line shorter than its layout.
type TooShortError struct {
	Length    int
	MinLength int
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("line is %d bytes, must be at least %d", e.Length, e.MinLength)
}

// NumberFormatError reports a numeric field that is not an integer. Value is
// the field text exactly as it appeared.
type NumberFormatError struct {
	Field string
	Value string
}

func (e *NumberFormatError) Error() string {
	return fmt.Sprintf("field %s: %q is not an integer", e.Field, e.Value)
}

// FlagFormatError reports a flag character other than 'Y' or 'N'.
// Position is the 1-based byte offset within the flag field. Char is
// utf8.RuneError when the bytes there are not valid UTF-8.
type FlagFormatError struct {
	Field    string
	Position int
	Char     rune
}

func (e *FlagFormatError) Error() string {
	return fmt.Sprintf("field %s: flag %d is %q, want 'Y' or 'N'", e.Field, e.Position, e.Char)
}

// TextEncodingError reports a text field that could not be decoded.
type TextEncodingError struct {
	Field string
	Value string
	Err   error
}

func (e *TextEncodingError) Error() string {
	return fmt.Sprintf("field %s: cannot decode %q: %v", e.Field, e.Value, e.Err)
}

func (e *TextEncodingError) Unwrap() error { return e.Err }
