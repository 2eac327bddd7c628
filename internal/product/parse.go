// =============================================================================
// Product Feed - Product Line Deserializer
// =============================================================================
//
// LINE LAYOUT (0-based byte offsets, half-open):
//
//   | Field                      | Offset    | Width |         |
//   |----------------------------|-----------|-------|---------|
//   | Product Id                 |   0 -   8 |     8 |         |
//   | Description                |   9 -  68 |    59 | trimmed |
//   | Regular Singular Price     |  69 -  77 |     8 |         |
//   | Promotional Singular Price |  78 -  86 |     8 |         |
//   | Regular Split Price        |  87 -  95 |     8 |         |
//   | Promotional Split Price    |  96 - 104 |     8 |         |
//   | Regular For X              | 105 - 113 |     8 |         |
//   | Promotional For X          | 114 - 122 |     8 |         |
//   | Flags (Y/N)                | 123 - 132 |     9 |         |
//   | Size                       | 133 - 142 |     9 | trimmed |
//
// PROCESSING ORDER:
//   1. Reject lines shorter than 142 bytes.
//   2. Convert every field in layout order; the first bad field stops parsing.
//   3. Check the regular then the promotional price group: singular and
//      split may not both be set, and a split price needs a positive for-X.
//   4. Require a regular price. A promotional price is optional.
//   5. Assemble the record.
//
// =============================================================================

package product

import (
	"github.com/popiel/code-exercise-services/internal/fixedwidth"
	"github.com/popiel/code-exercise-services/internal/record"
	"golang.org/x/text/encoding"
)

// =============================================================================
// LAYOUT
// =============================================================================

var (
	spanProductID                = fixedwidth.Span{Name: "Product Id", Start: 0, End: 8}
	spanDescription              = fixedwidth.Span{Name: "Description", Start: 9, End: 68}
	spanRegularSingularPrice     = fixedwidth.Span{Name: "Regular Singular Price", Start: 69, End: 77}
	spanPromotionalSingularPrice = fixedwidth.Span{Name: "Promotional Singular Price", Start: 78, End: 86}
	spanRegularSplitPrice        = fixedwidth.Span{Name: "Regular Split Price", Start: 87, End: 95}
	spanPromotionalSplitPrice    = fixedwidth.Span{Name: "Promotional Split Price", Start: 96, End: 104}
	spanRegularForX              = fixedwidth.Span{Name: "Regular For X", Start: 105, End: 113}
	spanPromotionalForX          = fixedwidth.Span{Name: "Promotional For X", Start: 114, End: 122}
	spanFlags                    = fixedwidth.Span{Name: "Flags", Start: 123, End: 132}
	spanSize                     = fixedwidth.Span{Name: "Size", Start: 133, End: 142}
)

// Layout is the product line layout.
var Layout = fixedwidth.NewLayout(
	spanProductID,
	spanDescription,
	spanRegularSingularPrice,
	spanPromotionalSingularPrice,
	spanRegularSplitPrice,
	spanPromotionalSplitPrice,
	spanRegularForX,
	spanPromotionalForX,
	spanFlags,
	spanSize,
)

// LineLength is the minimum length of a product line.
var LineLength = Layout.MinLength()

// =============================================================================
// DESERIALIZER
// =============================================================================

// Deserializer turns product lines into records. It holds no per-line state
// and is safe for concurrent use.
type Deserializer struct {
	text fixedwidth.Converter[string]
}

// NewDeserializer returns a deserializer decoding text fields from enc.
// A nil enc reads text fields as UTF-8.
func NewDeserializer(enc encoding.Encoding) *Deserializer {
	return &Deserializer{text: fixedwidth.DecodedText(enc)}
}

var defaultDeserializer = NewDeserializer(nil)

// Parse parses a UTF-8 product line.
func Parse(line string) (*record.Store, error) {
	return defaultDeserializer.Parse(line)
}

// Parse parses one product line.
func (d *Deserializer) Parse(line string) (*record.Store, error) {
	if err := Layout.Check(line); err != nil {
		return nil, err
	}

	p := lineParser{line: line}
	id := sliceInto(&p, spanProductID, fixedwidth.Integer)
	description := sliceInto(&p, spanDescription, d.text)
	regularSingular := sliceInto(&p, spanRegularSingularPrice, fixedwidth.Integer)
	promotionalSingular := sliceInto(&p, spanPromotionalSingularPrice, fixedwidth.Integer)
	regularSplit := sliceInto(&p, spanRegularSplitPrice, fixedwidth.Integer)
	promotionalSplit := sliceInto(&p, spanPromotionalSplitPrice, fixedwidth.Integer)
	regularForX := sliceInto(&p, spanRegularForX, fixedwidth.Integer)
	promotionalForX := sliceInto(&p, spanPromotionalForX, fixedwidth.Integer)
	flags := sliceInto(&p, spanFlags, flagsConverter)
	size := sliceInto(&p, spanSize, d.text)
	if p.err != nil {
		return nil, p.err
	}

	regularQuoted, err := checkPriceGroup(regularGroup.name, regularSingular, regularSplit, regularForX)
	if err != nil {
		return nil, err
	}
	if _, err := checkPriceGroup(promotionalGroup.name, promotionalSingular, promotionalSplit, promotionalForX); err != nil {
		return nil, err
	}
	if !regularQuoted {
		return nil, &MissingPriceError{Group: regularGroup.name}
	}

	b := record.NewBuilder()
	record.Set(b, ProductID, id)
	record.Set(b, Description, description)
	record.Set(b, RegularSingularPrice, regularSingular)
	record.Set(b, PromotionalSingularPrice, promotionalSingular)
	record.Set(b, RegularSplitPrice, regularSplit)
	record.Set(b, PromotionalSplitPrice, promotionalSplit)
	record.Set(b, RegularForX, regularForX)
	record.Set(b, PromotionalForX, promotionalForX)
	record.Set(b, ProductFlags, flags)
	record.Set(b, Size, size)
	return b.Build(), nil
}

// lineParser keeps the first slicing error so fields can be cut in a
// straight run.
type lineParser struct {
	line string
	err  error
}

func sliceInto[T any](p *lineParser, span fixedwidth.Span, convert fixedwidth.Converter[T]) T {
	var zero T
	if p.err != nil {
		return zero
	}
	v, err := fixedwidth.Slice(p.line, span, convert)
	if err != nil {
		p.err = err
		return zero
	}
	return v
}

func flagsConverter(field, raw string) (Flags, error) {
	values, err := fixedwidth.Flags(field, raw)
	if err != nil {
		return Flags{}, err
	}
	var flags Flags
	copy(flags[:], values)
	return flags, nil
}

// checkPriceGroup validates one price group and reports whether it quotes a
// price.
func checkPriceGroup(group string, singular, split, forX int64) (bool, error) {
	if singular != 0 && split != 0 {
		return false, &ConflictingPriceError{Group: group, Singular: singular, Split: split}
	}
	if split != 0 && forX <= 0 {
		return false, &InvalidForXError{Group: group, ForX: forX}
	}
	return singular != 0 || split != 0, nil
}
