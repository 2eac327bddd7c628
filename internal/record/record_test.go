package record

import (
	"errors"
	"strings"
	"testing"
)

var (
	testShape = NewCatalog("test")

	width  = Register(testShape, Raw[int64]("width"))
	height = Register(testShape, Raw[int64]("height"))
	label  = Register(testShape, Raw[string]("label"))

	area = Register(testShape, Derived("area", func(r *Resolver) (int64, error) {
		w, err := Resolve(r, width)
		if err != nil {
			return 0, err
		}
		h, err := Resolve(r, height)
		if err != nil {
			return 0, err
		}
		return w * h, nil
	}))

	doubleArea = Register(testShape, Derived("double_area", func(r *Resolver) (int64, error) {
		a, err := Resolve(r, area)
		return a * 2, err
	}))

	caption = Register(testShape, Derived("caption", func(r *Resolver) (string, error) {
		l, err := Resolve(r, label)
		if err != nil {
			return "", err
		}
		d, err := Resolve(r, doubleArea)
		if err != nil {
			return "", err
		}
		return l + ":" + FormatValue(d), nil
	}))
)

func sampleStore() *Store {
	b := NewBuilder()
	Set(b, width, 3)
	Set(b, height, 4)
	Set(b, label, "box")
	return b.Build()
}

// TestGetRaw reads stored values back with their declared type
func TestGetRaw(t *testing.T) {
	s := sampleStore()
	w, err := Get(s, width)
	if err != nil || w != 3 {
		t.Fatalf("width = %d, %v", w, err)
	}
	l, err := Get(s, label)
	if err != nil || l != "box" {
		t.Fatalf("label = %q, %v", l, err)
	}
}

// TestDescriptorIdentity independently built descriptors read the same slot
func TestDescriptorIdentity(t *testing.T) {
	s := sampleStore()
	again := Raw[int64]("width")
	if again.Key() != width.Key() {
		t.Fatalf("keys differ: %v vs %v", again.Key(), width.Key())
	}
	w, err := Get(s, again)
	if err != nil || w != 3 {
		t.Fatalf("width via copy = %d, %v", w, err)
	}
	if Raw[string]("width").Key() == width.Key() {
		t.Fatalf("same name with different type must be a different field")
	}
}

// TestDerivedChain derived fields built on derived fields
func TestDerivedChain(t *testing.T) {
	s := sampleStore()
	if a := MustGet(s, area); a != 12 {
		t.Fatalf("area = %d", a)
	}
	if d := MustGet(s, doubleArea); d != 24 {
		t.Fatalf("double_area = %d", d)
	}
	c, err := Get(s, caption)
	if err != nil || c != "box:24" {
		t.Fatalf("caption = %q, %v", c, err)
	}
}

// TestDerivedNotStored derived access leaves the store untouched
func TestDerivedNotStored(t *testing.T) {
	s := sampleStore()
	before := s.Len()
	_ = MustGet(s, caption)
	if s.Len() != before {
		t.Fatalf("store grew from %d to %d", before, s.Len())
	}
	if s.Has(area.Key()) {
		t.Fatalf("derived value cached in store")
	}
}

// TestMissingField absent raw values fail lazily
func TestMissingField(t *testing.T) {
	b := NewBuilder()
	Set(b, width, 3)
	s := b.Build()

	if _, err := Get(s, width); err != nil {
		t.Fatalf("present field: %v", err)
	}
	_, err := Get(s, area)
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "height" {
		t.Fatalf("want MissingFieldError for height, got %v", err)
	}
	if !IsEngineError(err) {
		t.Fatalf("missing field should classify as engine error")
	}
}

// TestFieldTypeMismatch externally built maps with the wrong Go type
func TestFieldTypeMismatch(t *testing.T) {
	s := NewStore(map[Key]any{width.Key(): "three"})
	_, err := Get(s, width)
	var mistyped *FieldTypeError
	if !errors.As(err, &mistyped) {
		t.Fatalf("want FieldTypeError, got %v", err)
	}
	if mistyped.Want != "int64" || mistyped.Got != "string" {
		t.Fatalf("unexpected detail %+v", mistyped)
	}
}

// TestNewStoreCopies later writes to the source map are invisible
func TestNewStoreCopies(t *testing.T) {
	src := map[Key]any{width.Key(): int64(1)}
	s := NewStore(src)
	src[width.Key()] = int64(99)
	if w := MustGet(s, width); w != 1 {
		t.Fatalf("store observed mutation: %d", w)
	}
}

// TestCircularDependency formulas referring back to themselves terminate
func TestCircularDependency(t *testing.T) {
	var a, b, c Field[int64]
	a = Derived("a", func(r *Resolver) (int64, error) { return Resolve(r, b) })
	b = Derived("b", func(r *Resolver) (int64, error) { return Resolve(r, c) })
	c = Derived("c", func(r *Resolver) (int64, error) { return Resolve(r, a) })

	_, err := Get(NewStore(nil), a)
	var cycle *CircularDependencyError
	if !errors.As(err, &cycle) {
		t.Fatalf("want CircularDependencyError, got %v", err)
	}
	if got := strings.Join(cycle.Chain, " -> "); got != "a -> b -> c -> a" {
		t.Fatalf("chain = %q", got)
	}
	if !strings.Contains(err.Error(), "a -> b -> c -> a") {
		t.Fatalf("message lacks chain: %s", err)
	}
}

// TestSelfReference the shortest possible cycle
func TestSelfReference(t *testing.T) {
	var self Field[string]
	self = Derived("self", func(r *Resolver) (string, error) { return Resolve(r, self) })
	_, err := Get(NewStore(nil), self)
	var cycle *CircularDependencyError
	if !errors.As(err, &cycle) || len(cycle.Chain) != 2 {
		t.Fatalf("want two-element chain, got %v", err)
	}
}

// TestChainScopedToQuery a field read twice by one formula is not a cycle
func TestChainScopedToQuery(t *testing.T) {
	twice := Derived("twice", func(r *Resolver) (int64, error) {
		x, err := Resolve(r, area)
		if err != nil {
			return 0, err
		}
		y, err := Resolve(r, area)
		return x + y, err
	})
	s := sampleStore()
	for i := 0; i < 3; i++ {
		v, err := Get(s, twice)
		if err != nil || v != 24 {
			t.Fatalf("run %d: %d, %v", i, v, err)
		}
	}
}

// TestDeepChain long derived-to-derived chains resolve
func TestDeepChain(t *testing.T) {
	const depth = 500
	prev := Raw[int64]("seed")
	for i := 0; i < depth; i++ {
		in := prev
		prev = Derived("step"+FormatValue(i), func(r *Resolver) (int64, error) {
			v, err := Resolve(r, in)
			return v + 1, err
		})
	}
	b := NewBuilder()
	Set(b, Raw[int64]("seed"), 0)
	v, err := Get(b.Build(), prev)
	if err != nil || v != depth {
		t.Fatalf("deep chain = %d, %v", v, err)
	}
}

// TestSetDerivedPanics derived fields cannot be stored
func TestSetDerivedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Set(NewBuilder(), area, 1)
}

// TestCatalogRegistration order, lookup and duplicate detection
func TestCatalogRegistration(t *testing.T) {
	entries := testShape.Entries()
	want := []string{"width", "height", "label", "area", "double_area", "caption"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries", len(entries))
	}
	for i, e := range entries {
		if e.Name() != want[i] {
			t.Fatalf("entry %d = %s, want %s", i, e.Name(), want[i])
		}
	}
	if len(testShape.Raw()) != 3 || len(testShape.Derived()) != 3 {
		t.Fatalf("raw/derived split wrong")
	}
	if e, ok := testShape.Entry("area"); !ok || !e.Derived {
		t.Fatalf("area lookup failed")
	}
	if _, ok := testShape.Entry("nope"); ok {
		t.Fatalf("unknown name found")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("duplicate registration should panic")
		}
	}()
	Register(testShape, Raw[int64]("width"))
}

// TestCatalogEvaluate resolves every entry, and reports absent raw fields
func TestCatalogEvaluate(t *testing.T) {
	values, err := testShape.Evaluate(sampleStore())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	last := values[len(values)-1]
	if last.Name != "caption" || last.Value != "box:24" || !last.Derived {
		t.Fatalf("unexpected last value %+v", last)
	}

	b := NewBuilder()
	Set(b, width, 1)
	partial := b.Build()
	if m := testShape.Missing(partial); len(m) != 2 || m[0] != "height" || m[1] != "label" {
		t.Fatalf("missing = %v", m)
	}
	if _, err := testShape.Evaluate(partial); !IsEngineError(err) {
		t.Fatalf("want engine error, got %v", err)
	}
}
