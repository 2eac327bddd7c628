// =============================================================================
// Product Feed - Field Catalog
// =============================================================================
//
// A Catalog is the explicit, ordered registration list of the raw and
// derived fields of one record shape. Fields are registered once, at package
// initialization of the package declaring the shape, and the catalog is
// read-only afterwards so it can be shared across goroutines.
//
// USAGE:
//   var Shape = record.NewCatalog("shape")
//
//   var (
//       Width  = record.Register(Shape, record.Raw[int64]("width"))
//       Double = record.Register(Shape, record.Derived("double",
//           func(r *record.Resolver) (int64, error) {
//               w, err := record.Resolve(r, Width)
//               return w * 2, err
//           }))
//   )
//
// =============================================================================

package record

import (
	"fmt"
	"reflect"
)

// Entry is one registered field, type-erased.
type Entry struct {
	Key     Key
	Derived bool

	resolve func(*Store) (any, error)
}

// Name returns the field name.
func (e Entry) Name() string { return e.Key.Name }

// Value resolves the entry against s in a fresh resolution chain.
func (e Entry) Value(s *Store) (any, error) {
	return e.resolve(s)
}

// FieldValue is a resolved entry.
type FieldValue struct {
	Name    string
	Type    reflect.Type
	Derived bool
	Value   any
}

// Catalog holds the registration list of one record shape.
type Catalog struct {
	name    string
	entries []Entry
	index   map[string]int
}

// NewCatalog returns an empty catalog.
func NewCatalog(name string) *Catalog {
	return &Catalog{name: name, index: make(map[string]int)}
}

// Register appends f to c and returns it unchanged, so declarations can be
// written as package-level variables. Registering two fields with the same
// name panics.
func Register[T any](c *Catalog, f Field[T]) Field[T] {
	if _, dup := c.index[f.Name()]; dup {
		panic(fmt.Sprintf("record: field %q registered twice in catalog %q", f.Name(), c.name))
	}
	c.index[f.Name()] = len(c.entries)
	c.entries = append(c.entries, Entry{
		Key:     f.Key(),
		Derived: f.IsDerived(),
		resolve: func(s *Store) (any, error) { return Get(s, f) },
	})
	return f
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// Entries returns every registered field in registration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Raw returns the raw fields in registration order.
func (c *Catalog) Raw() []Entry { return c.filter(false) }

// Derived returns the derived fields in registration order.
func (c *Catalog) Derived() []Entry { return c.filter(true) }

func (c *Catalog) filter(derived bool) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Derived == derived {
			out = append(out, e)
		}
	}
	return out
}

// Entry returns the field registered under name.
func (c *Catalog) Entry(name string) (Entry, bool) {
	i, ok := c.index[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Missing returns the names of raw fields that s holds no value for.
func (c *Catalog) Missing(s *Store) []string {
	var missing []string
	for _, e := range c.entries {
		if !e.Derived && !s.Has(e.Key) {
			missing = append(missing, e.Key.Name)
		}
	}
	return missing
}

// Evaluate resolves every registered field against s. The first error stops
// evaluation; on well-formed input only engine errors can occur here.
func (c *Catalog) Evaluate(s *Store) ([]FieldValue, error) {
	values := make([]FieldValue, 0, len(c.entries))
	for _, e := range c.entries {
		v, err := e.Value(s)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s.%s: %w", c.name, e.Key.Name, err)
		}
		values = append(values, FieldValue{
			Name:    e.Key.Name,
			Type:    e.Key.Type,
			Derived: e.Derived,
			Value:   v,
		})
	}
	return values, nil
}
