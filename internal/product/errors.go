package product

import (
	"errors"
	"fmt"

	"github.com/popiel/code-exercise-services/internal/fixedwidth"
)

// ConflictingPriceError reports a price group with both a singular and a
// split price.
type ConflictingPriceError struct {
	Group    string
	Singular int64
	Split    int64
}

func (e *ConflictingPriceError) Error() string {
	return fmt.Sprintf("%s price: singular price %d and split price %d are both set", e.Group, e.Singular, e.Split)
}

// InvalidForXError reports a split price whose for-X count is not positive.
type InvalidForXError struct {
	Group string
	ForX  int64
}

func (e *InvalidForXError) Error() string {
	return fmt.Sprintf("%s price: split price needs a positive for-X count, got %d", e.Group, e.ForX)
}

// MissingPriceError reports a product without a regular price.
type MissingPriceError struct {
	Group string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("%s price: neither singular nor split price is set", e.Group)
}

// IsLineError reports whether err is a malformed-line error, local to the
// line that produced it.
func IsLineError(err error) bool {
	var (
		tooShort    *fixedwidth.TooShortError
		number      *fixedwidth.NumberFormatError
		flag        *fixedwidth.FlagFormatError
		text        *fixedwidth.TextEncodingError
		conflicting *ConflictingPriceError
		forX        *InvalidForXError
		missing     *MissingPriceError
	)
	return errors.As(err, &tooShort) ||
		errors.As(err, &number) ||
		errors.As(err, &flag) ||
		errors.As(err, &text) ||
		errors.As(err, &conflicting) ||
		errors.As(err, &forX) ||
		errors.As(err, &missing)
}
