// =============================================================================
// Product Feed - Derivation Engine
// =============================================================================
//
// Resolving a field against a Store either returns the stored raw value or
// runs the field's formula. Formulas resolve their inputs through the same
// Resolver, which keeps the chain of fields currently being computed.
//
// CYCLE DETECTION:
//   Before a field is resolved the chain is searched for it. A hit means the
//   formulas loop back on themselves, and resolution stops with a
//   CircularDependencyError naming the whole chain (a -> b -> c -> a).
//   The chain lives only as long as one top-level Get call.
//
// =============================================================================

package record

import "reflect"

// Resolver carries the resolution chain of one top-level query.
type Resolver struct {
	store *Store
	chain []Key
}

// Store returns the store being queried.
func (r *Resolver) Store() *Store { return r.store }

// Chain returns the names of the fields currently being resolved,
// outermost first.
func (r *Resolver) Chain() []string {
	names := make([]string, len(r.chain))
	for i, k := range r.chain {
		names[i] = k.Name
	}
	return names
}

// Get resolves f against s in a fresh resolution chain.
func Get[T any](s *Store, f Field[T]) (T, error) {
	r := &Resolver{store: s}
	return Resolve(r, f)
}

// MustGet is Get for callers that treat engine errors as fatal.
func MustGet[T any](s *Store, f Field[T]) T {
	v, err := Get(s, f)
	if err != nil {
		panic(err)
	}
	return v
}

// Resolve resolves f within the chain carried by r. Formulas call this to
// read their inputs.
func Resolve[T any](r *Resolver, f Field[T]) (T, error) {
	var zero T

	for _, k := range r.chain {
		if k == f.key {
			return zero, &CircularDependencyError{Chain: append(r.Chain(), f.key.Name)}
		}
	}

	r.chain = append(r.chain, f.key)
	defer func() { r.chain = r.chain[:len(r.chain)-1] }()

	if f.formula != nil {
		return f.formula(r)
	}

	raw, err := r.store.Lookup(f.key)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &FieldTypeError{
			Field: f.key.Name,
			Want:  f.key.Type.String(),
			Got:   typeName(raw),
		}
	}
	return v, nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
