// =============================================================================
// Product Feed - Product Catalog
// =============================================================================
//
// This file declares every field of a product record: the raw values cut
// from the fixed-width line and the values derived from them on demand.
//
// RAW FIELDS:
//   product_id, description, regular/promotional singular price (cents),
//   regular/promotional split price (cents), regular/promotional for-X
//   count, flags (nine Y/N values), size.
//
// DERIVED FIELDS:
//   regular/promotional price       *money.Price, nil when no price is quoted
//   regular/promotional display     "$1.04", "-$1.04", "3 for $1.23" or ""
//   regular/promotional calculator  per-item centicents, halves rounded down
//   age_restricted, per_weight, taxable   flags 1, 3 and 5
//   unit_of_measure                 "Pound" when sold per weight, else "Each"
//   tax_rate                        7.775% when taxable, else 0
//
// FLAG POSITIONS:
//   The meaning of flags 1, 3 and 5 was worked out from sample data rather
//   than from a format description and should be confirmed before anything
//   else is built on them.
//
// =============================================================================

package product

import (
	"fmt"

	"github.com/popiel/code-exercise-services/internal/money"
	"github.com/popiel/code-exercise-services/internal/record"
	"github.com/shopspring/decimal"
)

// FlagCount is the number of Y/N flags on a product line.
const FlagCount = 9

// Flags holds the nine product flags, 0-based.
type Flags [FlagCount]bool

// String renders the flags in their line form, e.g. "NNYNYNNNN".
func (f Flags) String() string {
	b := make([]byte, FlagCount)
	for i, set := range f {
		if set {
			b[i] = 'Y'
		} else {
			b[i] = 'N'
		}
	}
	return string(b)
}

// Flag indexes with a known meaning.
const (
	flagAgeRestricted = 0
	flagPerWeight     = 2
	flagTaxable       = 4
)

// Units of measure.
const (
	UnitEach  = "Each"
	UnitPound = "Pound"
)

// StandardTaxRate is the rate applied to taxable products, as a fraction.
var StandardTaxRate = decimal.RequireFromString("0.07775")

// Catalog is the field catalog of product records.
var Catalog = record.NewCatalog("product")

// =============================================================================
// RAW FIELDS
// =============================================================================

var (
	ProductID                = record.Register(Catalog, record.Raw[int64]("product_id"))
	Description              = record.Register(Catalog, record.Raw[string]("description"))
	RegularSingularPrice     = record.Register(Catalog, record.Raw[int64]("regular_singular_price"))
	PromotionalSingularPrice = record.Register(Catalog, record.Raw[int64]("promotional_singular_price"))
	RegularSplitPrice        = record.Register(Catalog, record.Raw[int64]("regular_split_price"))
	PromotionalSplitPrice    = record.Register(Catalog, record.Raw[int64]("promotional_split_price"))
	RegularForX              = record.Register(Catalog, record.Raw[int64]("regular_for_x"))
	PromotionalForX          = record.Register(Catalog, record.Raw[int64]("promotional_for_x"))
	ProductFlags             = record.Register(Catalog, record.Raw[Flags]("flags"))
	Size                     = record.Register(Catalog, record.Raw[string]("size"))
)

// =============================================================================
// DERIVED FIELDS
// =============================================================================

var (
	RegularPrice     = record.Register(Catalog, record.Derived("regular_price", priceOf(regularGroup)))
	PromotionalPrice = record.Register(Catalog, record.Derived("promotional_price", priceOf(promotionalGroup)))

	RegularDisplayPrice     = record.Register(Catalog, record.Derived("regular_display_price", displayOf(RegularPrice)))
	PromotionalDisplayPrice = record.Register(Catalog, record.Derived("promotional_display_price", displayOf(PromotionalPrice)))

	RegularCalculatorPrice     = record.Register(Catalog, record.Derived("regular_calculator_price", calculatorOf(RegularPrice)))
	PromotionalCalculatorPrice = record.Register(Catalog, record.Derived("promotional_calculator_price", calculatorOf(PromotionalPrice)))

	AgeRestricted = record.Register(Catalog, record.Derived("age_restricted", flagAt(flagAgeRestricted)))
	PerWeight     = record.Register(Catalog, record.Derived("per_weight", flagAt(flagPerWeight)))
	Taxable       = record.Register(Catalog, record.Derived("taxable", flagAt(flagTaxable)))

	UnitOfMeasure = record.Register(Catalog, record.Derived("unit_of_measure", func(r *record.Resolver) (string, error) {
		perWeight, err := record.Resolve(r, PerWeight)
		if err != nil {
			return "", err
		}
		if perWeight {
			return UnitPound, nil
		}
		return UnitEach, nil
	}))

	TaxRate = record.Register(Catalog, record.Derived("tax_rate", func(r *record.Resolver) (decimal.Decimal, error) {
		taxable, err := record.Resolve(r, Taxable)
		if err != nil {
			return decimal.Zero, err
		}
		if taxable {
			return StandardTaxRate, nil
		}
		return decimal.Zero, nil
	}))
)

// =============================================================================
// FORMULAS
// =============================================================================

// priceGroup names the three raw fields that make up one price.
type priceGroup struct {
	name     string
	singular record.Field[int64]
	split    record.Field[int64]
	forX     record.Field[int64]
}

var (
	regularGroup = priceGroup{
		name:     "regular",
		singular: RegularSingularPrice,
		split:    RegularSplitPrice,
		forX:     RegularForX,
	}
	promotionalGroup = priceGroup{
		name:     "promotional",
		singular: PromotionalSingularPrice,
		split:    PromotionalSplitPrice,
		forX:     PromotionalForX,
	}
)

// priceOf builds the price of a group. A non-zero singular price wins over a
// split price; when both are zero the group quotes no price.
func priceOf(g priceGroup) record.Formula[*money.Price] {
	return func(r *record.Resolver) (*money.Price, error) {
		singular, err := record.Resolve(r, g.singular)
		if err != nil {
			return nil, err
		}
		if singular != 0 {
			p := money.Singular(singular)
			return &p, nil
		}

		split, err := record.Resolve(r, g.split)
		if err != nil {
			return nil, err
		}
		if split == 0 {
			return nil, nil
		}

		forX, err := record.Resolve(r, g.forX)
		if err != nil {
			return nil, err
		}
		p, err := money.Split(split, forX)
		if err != nil {
			return nil, fmt.Errorf("%s price: %w", g.name, err)
		}
		return &p, nil
	}
}

func displayOf(price record.Field[*money.Price]) record.Formula[string] {
	return func(r *record.Resolver) (string, error) {
		p, err := record.Resolve(r, price)
		if err != nil {
			return "", err
		}
		return p.Display(), nil
	}
}

func calculatorOf(price record.Field[*money.Price]) record.Formula[int64] {
	return func(r *record.Resolver) (int64, error) {
		p, err := record.Resolve(r, price)
		if err != nil {
			return 0, err
		}
		return p.Calculator(), nil
	}
}

func flagAt(index int) record.Formula[bool] {
	return func(r *record.Resolver) (bool, error) {
		flags, err := record.Resolve(r, ProductFlags)
		if err != nil {
			return false, err
		}
		return flags[index], nil
	}
}
