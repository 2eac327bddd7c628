package record

import (
	"errors"
	"fmt"
	"strings"
)

// MissingFieldError reports a raw field with no value in the store.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("field %q has no value in the record", e.Field)
}

// CircularDependencyError reports a formula chain that loops back on itself.
// Chain ends with the repeated field.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return "circular field dependency: " + strings.Join(e.Chain, " -> ")
}

// FieldTypeError reports a stored value whose Go type differs from the
// field's declared type.
type FieldTypeError struct {
	Field string
	Want  string
	Got   string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q holds %s, declared as %s", e.Field, e.Got, e.Want)
}

// IsEngineError reports whether err comes from the derivation engine. These
// point at a broken catalog or a badly assembled store, never at input data.
func IsEngineError(err error) bool {
	var missing *MissingFieldError
	var cycle *CircularDependencyError
	var mistyped *FieldTypeError
	return errors.As(err, &missing) || errors.As(err, &cycle) || errors.As(err, &mistyped)
}
