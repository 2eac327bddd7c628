package feed

import (
	"fmt"
	"strings"
)

// Policy decides what happens to a malformed line.
type Policy int

const (
	// Skip records the line error and moves on to the next line.
	Skip Policy = iota
	// FailFast stops iteration at the first malformed line.
	FailFast
)

// ParsePolicy reads a policy from its configuration name.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "skip":
		return Skip, nil
	case "fail_fast", "fail-fast", "failfast":
		return FailFast, nil
	default:
		return Skip, fmt.Errorf("unknown error policy %q (want skip or fail_fast)", name)
	}
}

func (p Policy) String() string {
	if p == FailFast {
		return "fail_fast"
	}
	return "skip"
}

// LineError tags a parse failure with where it happened. Line is 1-based.
type LineError struct {
	Source string
	Line   int
	Err    error
}

func (e *LineError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
