package fixedwidth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

var (
	spanCode = Span{Name: "Code", Start: 0, End: 4}
	spanName = Span{Name: "Name", Start: 5, End: 12}
	spanFlag = Span{Name: "Flags", Start: 13, End: 16}
)

// TestLayoutMinLength the furthest span end is the minimum length
func TestLayoutMinLength(t *testing.T) {
	l := NewLayout(spanCode, spanName, spanFlag)
	if l.MinLength() != 16 {
		t.Fatalf("min length = %d", l.MinLength())
	}
	if len(l.Spans()) != 3 {
		t.Fatalf("spans = %v", l.Spans())
	}
	err := l.Check("short")
	var short *TooShortError
	if !errors.As(err, &short) || short.Length != 5 || short.MinLength != 16 {
		t.Fatalf("want TooShortError, got %v", err)
	}
	if err := l.Check(strings.Repeat("x", 16)); err != nil {
		t.Fatalf("exact length rejected: %v", err)
	}
}

// TestLayoutOverlapPanics overlapping spans are a declaration bug
func TestLayoutOverlapPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewLayout(spanCode, Span{Name: "Bad", Start: 3, End: 6})
}

// TestSlice cuts exact byte ranges
func TestSlice(t *testing.T) {
	line := "0042 widget  YNY"
	code, err := Slice(line, spanCode, Integer)
	if err != nil || code != 42 {
		t.Fatalf("code = %d, %v", code, err)
	}
	name, err := Slice(line, spanName, Text)
	if err != nil || name != "widget" {
		t.Fatalf("name = %q, %v", name, err)
	}
	flags, err := Slice(line, spanFlag, Flags)
	if err != nil || len(flags) != 3 || !flags[0] || flags[1] || !flags[2] {
		t.Fatalf("flags = %v, %v", flags, err)
	}
	if _, err := Slice("00", spanCode, Integer); err == nil {
		t.Fatalf("slice past end should fail")
	}
}

// TestIntegerErrors the offending text is reported verbatim
func TestIntegerErrors(t *testing.T) {
	for _, raw := range []string{"12a4", "    ", " 123", "1.50"} {
		_, err := Integer("Price", raw)
		var nf *NumberFormatError
		if !errors.As(err, &nf) {
			t.Fatalf("%q: want NumberFormatError, got %v", raw, err)
		}
		if nf.Field != "Price" || nf.Value != raw {
			t.Fatalf("%q: detail %+v", raw, nf)
		}
	}
	if v, err := Integer("Price", "-0000104"); err != nil || v != -104 {
		t.Fatalf("signed value = %d, %v", v, err)
	}
}

// TestFlagsErrors the 1-based position and character are reported
func TestFlagsErrors(t *testing.T) {
	_, err := Flags("Flags", "NNYx")
	var ff *FlagFormatError
	if !errors.As(err, &ff) {
		t.Fatalf("want FlagFormatError, got %v", err)
	}
	if ff.Position != 4 || ff.Char != 'x' {
		t.Fatalf("detail %+v", ff)
	}
	if _, err := Flags("Flags", "y"); err == nil {
		t.Fatalf("lowercase flag accepted")
	}
}

// TestFlagsNonASCII a multi-byte character is reported whole
func TestFlagsNonASCII(t *testing.T) {
	_, err := Flags("Flags", "NNéNNNNN")
	var ff *FlagFormatError
	if !errors.As(err, &ff) {
		t.Fatalf("want FlagFormatError, got %v", err)
	}
	if ff.Position != 3 || ff.Char != 'é' {
		t.Fatalf("detail %+v", ff)
	}
	if want := `field Flags: flag 3 is 'é', want 'Y' or 'N'`; err.Error() != want {
		t.Fatalf("message %q", err.Error())
	}
}

// TestDecodedText latin-1 bytes are decoded after slicing
func TestDecodedText(t *testing.T) {
	convert := DecodedText(charmap.ISO8859_1)
	got, err := convert("Name", " Caf\xe9  ")
	if err != nil || got != "Café" {
		t.Fatalf("decoded = %q, %v", got, err)
	}
	plain := DecodedText(nil)
	if got, _ := plain("Name", "  a  "); got != "a" {
		t.Fatalf("plain = %q", got)
	}
}

// TestLookupEncoding common names resolve, unknown names fail
func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "utf8"} {
		if enc, err := LookupEncoding(name); err != nil || enc != nil {
			t.Fatalf("%q: %v %v", name, enc, err)
		}
	}
	if enc, err := LookupEncoding("ISO-8859-1"); err != nil || enc != charmap.ISO8859_1 {
		t.Fatalf("latin1: %v %v", enc, err)
	}
	if enc, err := LookupEncoding("windows-1252"); err != nil || enc != charmap.Windows1252 {
		t.Fatalf("cp1252: %v %v", enc, err)
	}
	if _, err := LookupEncoding("no-such-charset"); err == nil {
		t.Fatalf("unknown encoding accepted")
	}
}
