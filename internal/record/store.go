package record

import "fmt"

// Store is an immutable mapping from raw field keys to values, one per
// decoded line. Derived values are never written into it.
type Store struct {
	values map[Key]any
}

// NewStore copies values into a new Store. The map may have been built by
// anyone, so a missing or mistyped entry only surfaces when it is read.
func NewStore(values map[Key]any) *Store {
	copied := make(map[Key]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Store{values: copied}
}

// Lookup returns the raw value stored under k.
func (s *Store) Lookup(k Key) (any, error) {
	v, ok := s.values[k]
	if !ok {
		return nil, &MissingFieldError{Field: k.Name}
	}
	return v, nil
}

// Has reports whether a raw value is stored under k.
func (s *Store) Has(k Key) bool {
	_, ok := s.values[k]
	return ok
}

// Len returns the number of raw values in the store.
func (s *Store) Len() int { return len(s.values) }

// Builder accumulates raw values for a Store.
type Builder struct {
	values map[Key]any
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[Key]any)}
}

// Set records the raw value of f. Setting a derived field is a programming
// error and panics.
func Set[T any](b *Builder, f Field[T], v T) *Builder {
	if f.IsDerived() {
		panic(fmt.Sprintf("record: cannot store a value for derived field %q", f.Name()))
	}
	b.values[f.key] = v
	return b
}

// Build returns a Store holding a copy of the values set so far.
func (b *Builder) Build() *Store {
	return NewStore(b.values)
}
