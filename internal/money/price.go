// =============================================================================
// Product Feed - Price
// =============================================================================
//
// Prices are held as integer centicents (hundredths of a cent, 10,000 per
// dollar) so that per-item prices of group offers keep four decimal places
// without any binary floating point.
//
// A Price is either a singular price (count 1) or an N-for-price group offer.
//
//   Singular(104).Display()    -> "$1.04"
//   Singular(-104).Display()   -> "-$1.04"
//   Split(123, 3).Display()    -> "3 for $1.23"
//   Split(123, 1).Display()    -> "1 for $1.23"
//   Split(123, 3).Calculator() -> 4100
//
// =============================================================================

package money

import (
	"errors"
	"fmt"
)

// CenticentsPerCent is the number of centicents in one cent.
const CenticentsPerCent = 100

// ErrInvalidCount is returned for group offers with fewer than one item.
var ErrInvalidCount = errors.New("item count must be at least 1")

// Price is an immutable amount for Count items.
type Price struct {
	centicents int64
	count      int64
	split      bool
}

// Singular returns a per-item price of cents.
func Singular(cents int64) Price {
	return Price{centicents: cents * CenticentsPerCent, count: 1}
}

// Split returns a group offer of forX items for cents.
func Split(cents, forX int64) (Price, error) {
	if forX < 1 {
		return Price{}, fmt.Errorf("split price %d for %d: %w", cents, forX, ErrInvalidCount)
	}
	return Price{centicents: cents * CenticentsPerCent, count: forX, split: true}, nil
}

// Centicents returns the amount charged for Count items.
func (p *Price) Centicents() int64 {
	if p == nil {
		return 0
	}
	return p.centicents
}

// Count returns the number of items the amount buys.
func (p *Price) Count() int64 {
	if p == nil {
		return 0
	}
	return p.count
}

// IsSplit reports whether the price is a group offer, even one for a
// single item.
func (p *Price) IsSplit() bool {
	return p != nil && p.split
}

// Display renders the price for shelf labels: "$1.04", "-$1.04" or
// "3 for $1.23". A nil price renders as "".
func (p *Price) Display() string {
	if p == nil {
		return ""
	}
	amount := FormatDollars(p.centicents / CenticentsPerCent)
	if !p.split {
		return amount
	}
	return fmt.Sprintf("%d for %s", p.count, amount)
}

// Calculator returns the per-item price in centicents, rounding exact halves
// down. A nil price calculates to 0.
func (p *Price) Calculator() int64 {
	if p == nil {
		return 0
	}
	return floorDiv(p.centicents+(p.count-1)/2, p.count)
}

// String returns Display.
func (p *Price) String() string {
	return p.Display()
}

// FormatDollars renders cents as a dollar amount with the sign ahead of the
// dollar sign.
func FormatDollars(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// floorDiv divides rounding toward negative infinity. d must be positive.
func floorDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && n < 0 {
		q--
	}
	return q
}
