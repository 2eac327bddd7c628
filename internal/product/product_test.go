package product

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/popiel/code-exercise-services/internal/fixedwidth"
	"github.com/popiel/code-exercise-services/internal/money"
	"github.com/popiel/code-exercise-services/internal/record"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// line describes a product line by its field values.
type line struct {
	id                  int64
	description         string
	regularSingular     int64
	promotionalSingular int64
	regularSplit        int64
	promotionalSplit    int64
	regularForX         int64
	promotionalForX     int64
	flags               string
	size                string
}

func (l line) String() string {
	flags := l.flags
	if flags == "" {
		flags = "NNNNNNNNN"
	}
	return fmt.Sprintf("%08d %-59s %08d %08d %08d %08d %08d %08d %s %9s",
		l.id, l.description,
		l.regularSingular, l.promotionalSingular,
		l.regularSplit, l.promotionalSplit,
		l.regularForX, l.promotionalForX,
		flags, l.size)
}

var rice = line{id: 80000001, description: "Kimchi-flavored white rice", regularSingular: 567, size: "18oz"}

var soda = line{
	id:                  14963801,
	description:         "Generic Soda 12-pack",
	promotionalSingular: 549,
	regularSplit:        1300,
	regularForX:         2,
	flags:               "NNNNYNNNN",
	size:                "12x12oz",
}

var cigarettes = line{
	id:                  40123401,
	description:         "Marlboro Cigarettes",
	regularSingular:     1000,
	promotionalSingular: 549,
	flags:               "YNNNNNNNN",
}

var apples = line{id: 50133333, description: "Fuji Apples (Organic)", regularSingular: 349, flags: "NNYNNNNNN", size: "lb"}

func mustParse(t *testing.T, l line) *record.Store {
	t.Helper()
	text := l.String()
	if len(text) != LineLength {
		t.Fatalf("test line is %d bytes: %q", len(text), text)
	}
	s, err := Parse(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return s
}

func get[T any](t *testing.T, s *record.Store, f record.Field[T]) T {
	t.Helper()
	v, err := record.Get(s, f)
	if err != nil {
		t.Fatalf("get %s: %v", f.Name(), err)
	}
	return v
}

// TestParseRawFields raw values come back trimmed and typed
func TestParseRawFields(t *testing.T) {
	s := mustParse(t, soda)
	if get(t, s, ProductID) != 14963801 {
		t.Fatalf("product id")
	}
	if got := get(t, s, Description); got != "Generic Soda 12-pack" {
		t.Fatalf("description = %q", got)
	}
	if got := get(t, s, Size); got != "12x12oz" {
		t.Fatalf("size = %q", got)
	}
	if get(t, s, RegularSplitPrice) != 1300 || get(t, s, RegularForX) != 2 {
		t.Fatalf("regular split group")
	}
	if get(t, s, PromotionalSingularPrice) != 549 {
		t.Fatalf("promotional singular")
	}
	if got := get(t, s, ProductFlags).String(); got != "NNNNYNNNN" {
		t.Fatalf("flags = %s", got)
	}
	if m := Catalog.Missing(s); len(m) != 0 {
		t.Fatalf("store lacks %v", m)
	}
}

// TestDerivedPrices display and calculator prices for both groups
func TestDerivedPrices(t *testing.T) {
	cases := []struct {
		name                     string
		l                        line
		regDisplay, promoDisplay string
		regCalc, promoCalc       int64
	}{
		{"singular only", rice, "$5.67", "", 56700, 0},
		{"split with promo", soda, "2 for $13.00", "$5.49", 65000, 54900},
		{"singular with promo", cigarettes, "$10.00", "$5.49", 100000, 54900},
		{"split for one", line{id: 4, description: "x", regularSplit: 123, regularForX: 1}, "1 for $1.23", "", 12300, 0},
		{"three for", line{id: 1, description: "x", regularSplit: 125, regularForX: 3}, "3 for $1.25", "", 4167, 0},
		{"negative", line{id: 2, description: "refund", regularSingular: -104}, "-$1.04", "", -10400, 0},
		{"promo split", line{id: 3, description: "x", regularSingular: 100, promotionalSplit: 150, promotionalForX: 10000},
			"$1.00", "10000 for $1.50", 10000, 1},
	}
	for _, c := range cases {
		s := mustParse(t, c.l)
		if got := get(t, s, RegularDisplayPrice); got != c.regDisplay {
			t.Errorf("%s: regular display %q want %q", c.name, got, c.regDisplay)
		}
		if got := get(t, s, PromotionalDisplayPrice); got != c.promoDisplay {
			t.Errorf("%s: promotional display %q want %q", c.name, got, c.promoDisplay)
		}
		if got := get(t, s, RegularCalculatorPrice); got != c.regCalc {
			t.Errorf("%s: regular calculator %d want %d", c.name, got, c.regCalc)
		}
		if got := get(t, s, PromotionalCalculatorPrice); got != c.promoCalc {
			t.Errorf("%s: promotional calculator %d want %d", c.name, got, c.promoCalc)
		}
	}
}

// TestAbsentPromotionalPrice a group with no price yields a nil price
func TestAbsentPromotionalPrice(t *testing.T) {
	s := mustParse(t, rice)
	if p := get(t, s, PromotionalPrice); p != nil {
		t.Fatalf("promotional price = %v", p)
	}
	if p := get(t, s, RegularPrice); p == nil || p.IsSplit() || p.Centicents() != 56700 {
		t.Fatalf("regular price = %+v", p)
	}
}

// TestEmptyDisplayForAnyForX zero singular and zero split display as "" whatever the count
func TestEmptyDisplayForAnyForX(t *testing.T) {
	for _, forX := range []int64{-5, 0, 1, 2, 99999999} {
		l := rice
		l.promotionalForX = forX
		s := mustParse(t, l)
		if got := get(t, s, PromotionalDisplayPrice); got != "" {
			t.Fatalf("forX=%d display %q", forX, got)
		}
		if got := get(t, s, PromotionalCalculatorPrice); got != 0 {
			t.Fatalf("forX=%d calculator %d", forX, got)
		}
	}
}

// TestFlagAccessors every combination of the nine flags
func TestFlagAccessors(t *testing.T) {
	for mask := 0; mask < 1<<FlagCount; mask++ {
		var b strings.Builder
		for i := 0; i < FlagCount; i++ {
			if mask&(1<<i) != 0 {
				b.WriteByte('Y')
			} else {
				b.WriteByte('N')
			}
		}
		l := rice
		l.flags = b.String()
		s := mustParse(t, l)

		wantAge := mask&(1<<0) != 0
		wantWeight := mask&(1<<2) != 0
		wantTaxable := mask&(1<<4) != 0

		if get(t, s, AgeRestricted) != wantAge {
			t.Fatalf("%s: age restricted", l.flags)
		}
		if get(t, s, PerWeight) != wantWeight {
			t.Fatalf("%s: per weight", l.flags)
		}
		if get(t, s, Taxable) != wantTaxable {
			t.Fatalf("%s: taxable", l.flags)
		}

		unit := get(t, s, UnitOfMeasure)
		if wantWeight && unit != UnitPound || !wantWeight && unit != UnitEach {
			t.Fatalf("%s: unit %s", l.flags, unit)
		}

		rate := get(t, s, TaxRate)
		if wantTaxable && !rate.Equal(decimal.RequireFromString("0.07775")) {
			t.Fatalf("%s: tax rate %s", l.flags, rate)
		}
		if !wantTaxable && !rate.IsZero() {
			t.Fatalf("%s: tax rate %s", l.flags, rate)
		}
	}
}

// TestParseDeterministic the same line always yields the same record
func TestParseDeterministic(t *testing.T) {
	for _, l := range []line{rice, soda, cigarettes, apples} {
		first, err := Catalog.Evaluate(mustParse(t, l))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		second, err := Catalog.Evaluate(mustParse(t, l))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		for i := range first {
			a, b := record.FormatValue(first[i].Value), record.FormatValue(second[i].Value)
			if a != b {
				t.Fatalf("%s differs: %q vs %q", first[i].Name, a, b)
			}
		}
	}
}

// TestParseTooShort any line under 142 bytes is rejected first
func TestParseTooShort(t *testing.T) {
	full := rice.String()
	for _, n := range []int{0, 1, 8, 100, LineLength - 1} {
		_, err := Parse(full[:n])
		var short *fixedwidth.TooShortError
		if !errors.As(err, &short) || short.MinLength != LineLength {
			t.Fatalf("len %d: want TooShortError, got %v", n, err)
		}
	}
	garbage := strings.Repeat("?", 50)
	if _, err := Parse(garbage); !IsLineError(err) {
		t.Fatalf("garbage: %v", err)
	}
	if _, err := Parse(full + "   trailing padding"); err != nil {
		t.Fatalf("padding after the layout rejected: %v", err)
	}
}

// TestParseNumberFormat names the field and keeps the bad text verbatim
func TestParseNumberFormat(t *testing.T) {
	cases := []struct {
		span fixedwidth.Span
		bad  string
	}{
		{spanProductID, "8000O001"},
		{spanRegularSingularPrice, "0000 567"},
		{spanPromotionalSplitPrice, "abcdefgh"},
		{spanPromotionalForX, "        "},
	}
	for _, c := range cases {
		text := []byte(rice.String())
		copy(text[c.span.Start:c.span.End], c.bad)
		_, err := Parse(string(text))
		var nf *fixedwidth.NumberFormatError
		if !errors.As(err, &nf) {
			t.Fatalf("%s: want NumberFormatError, got %v", c.span.Name, err)
		}
		if nf.Field != c.span.Name || nf.Value != c.bad {
			t.Fatalf("%s: detail %+v", c.span.Name, nf)
		}
	}
}

// TestParseFlagFormat reports the 1-based flag position
func TestParseFlagFormat(t *testing.T) {
	l := rice
	l.flags = "NNNNNNZNN"
	_, err := Parse(l.String())
	var ff *fixedwidth.FlagFormatError
	if !errors.As(err, &ff) || ff.Position != 7 || ff.Char != 'Z' {
		t.Fatalf("want flag 7 error, got %v", err)
	}
}

// TestParsePriceGroups conflicting, invalid and missing prices
func TestParsePriceGroups(t *testing.T) {
	t.Run("regular conflict", func(t *testing.T) {
		l := rice
		l.regularSplit, l.regularForX = 1300, 2
		_, err := Parse(l.String())
		var ce *ConflictingPriceError
		if !errors.As(err, &ce) || ce.Group != "regular" {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("promotional conflict", func(t *testing.T) {
		l := cigarettes
		l.promotionalSplit, l.promotionalForX = 100, 2
		_, err := Parse(l.String())
		var ce *ConflictingPriceError
		if !errors.As(err, &ce) || ce.Group != "promotional" {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("split without count", func(t *testing.T) {
		for _, forX := range []int64{0, -2} {
			l := line{id: 5, description: "x", regularSplit: 300, regularForX: forX}
			_, err := Parse(l.String())
			var fe *InvalidForXError
			if !errors.As(err, &fe) || fe.Group != "regular" || fe.ForX != forX {
				t.Fatalf("forX=%d got %v", forX, err)
			}
		}
	})
	t.Run("promotional split without count", func(t *testing.T) {
		l := rice
		l.promotionalSplit = 300
		_, err := Parse(l.String())
		var fe *InvalidForXError
		if !errors.As(err, &fe) || fe.Group != "promotional" {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("missing regular price", func(t *testing.T) {
		l := line{id: 6, description: "promo only", promotionalSingular: 100}
		_, err := Parse(l.String())
		var me *MissingPriceError
		if !errors.As(err, &me) {
			t.Fatalf("got %v", err)
		}
		if !IsLineError(err) || record.IsEngineError(err) {
			t.Fatalf("classification wrong for %v", err)
		}
	})
	t.Run("promotional checked before missing regular", func(t *testing.T) {
		l := line{id: 7, description: "x", promotionalSingular: 1, promotionalSplit: 1, promotionalForX: 1}
		_, err := Parse(l.String())
		var ce *ConflictingPriceError
		if !errors.As(err, &ce) {
			t.Fatalf("got %v", err)
		}
	})
}

// TestDecodedDescription latin-1 text fields are decoded after slicing
func TestDecodedDescription(t *testing.T) {
	text := []byte(rice.String())
	description := []byte(strings.Repeat(" ", spanDescription.Width()))
	copy(description, "Caf\xe9 au lait")
	copy(text[spanDescription.Start:], description)
	s, err := NewDeserializer(charmap.ISO8859_1).Parse(string(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := get(t, s, Description); got != "Café au lait" {
		t.Fatalf("description = %q", got)
	}
	if got := get(t, s, Size); got != "18oz" {
		t.Fatalf("size shifted: %q", got)
	}
}

// TestFormulasOnExternalStore formulas handle stores not built by Parse
func TestFormulasOnExternalStore(t *testing.T) {
	b := record.NewBuilder()
	record.Set(b, RegularSingularPrice, 100)
	record.Set(b, RegularSplitPrice, 300)
	record.Set(b, RegularForX, 3)
	s := b.Build()
	if got := get(t, s, RegularDisplayPrice); got != "$1.00" {
		t.Fatalf("singular should win, got %q", got)
	}

	b = record.NewBuilder()
	record.Set(b, RegularSingularPrice, 0)
	record.Set(b, RegularSplitPrice, 300)
	record.Set(b, RegularForX, 0)
	if _, err := record.Get(b.Build(), RegularCalculatorPrice); !errors.Is(err, money.ErrInvalidCount) {
		t.Fatalf("want ErrInvalidCount, got %v", err)
	}

	_, err := record.Get(record.NewStore(nil), TaxRate)
	var missing *record.MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "flags" {
		t.Fatalf("want missing flags, got %v", err)
	}
}

// TestCatalogShape the catalog lists raw fields before derived ones
func TestCatalogShape(t *testing.T) {
	if n := len(Catalog.Raw()); n != 10 {
		t.Fatalf("raw fields = %d", n)
	}
	if n := len(Catalog.Derived()); n != 11 {
		t.Fatalf("derived fields = %d", n)
	}
	if LineLength != 142 {
		t.Fatalf("layout length %d", LineLength)
	}
	entries := Catalog.Entries()
	for i, e := range entries {
		if e.Derived {
			for _, later := range entries[i:] {
				if !later.Derived {
					t.Fatalf("raw field %s registered after derived %s", later.Name(), e.Name())
				}
			}
			break
		}
	}
}
