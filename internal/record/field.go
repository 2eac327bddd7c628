// =============================================================================
// Product Feed - Field Descriptors
// =============================================================================
//
// A Field is a named, typed handle for one slot of a record. It carries no
// data of its own. Raw fields are read straight from a Store; derived fields
// carry a Formula that computes the value from other fields on every access.
//
// IDENTITY:
//   Two descriptors are the same field when they share a name and a Go type.
//   Key is the comparable form of that identity and is what a Store is keyed
//   by, so independently constructed raw descriptors read the same slot.
//
// =============================================================================

package record

import (
	"fmt"
	"reflect"
)

// Key identifies a field by name and declared type.
type Key struct {
	Name string
	Type reflect.Type
}

// String returns "name (type)".
func (k Key) String() string {
	if k.Type == nil {
		return k.Name
	}
	return fmt.Sprintf("%s (%s)", k.Name, k.Type)
}

// KeyOf returns the key of a field named name holding values of type T.
func KeyOf[T any](name string) Key {
	return Key{Name: name, Type: reflect.TypeFor[T]()}
}

// Formula computes a derived value. It reads other fields through the
// Resolver it is handed so the resolution chain follows the recursion.
type Formula[T any] func(r *Resolver) (T, error)

// Field is an immutable descriptor for a value of type T.
type Field[T any] struct {
	key     Key
	formula Formula[T]
}

// Raw declares a field stored directly in a Store.
func Raw[T any](name string) Field[T] {
	return Field[T]{key: KeyOf[T](name)}
}

// Derived declares a field computed by formula.
func Derived[T any](name string, formula Formula[T]) Field[T] {
	if formula == nil {
		panic(fmt.Sprintf("record: derived field %q declared without a formula", name))
	}
	return Field[T]{key: KeyOf[T](name), formula: formula}
}

// Name returns the field name.
func (f Field[T]) Name() string { return f.key.Name }

// Key returns the comparable identity of the field.
func (f Field[T]) Key() Key { return f.key }

// IsDerived reports whether the field is computed rather than stored.
func (f Field[T]) IsDerived() bool { return f.formula != nil }

// String returns the field name.
func (f Field[T]) String() string { return f.key.Name }
