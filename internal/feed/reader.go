// =============================================================================
// Product Feed - Line Reader
// =============================================================================
//
// The reader walks a product file line by line, hands every non-empty line
// to a Parser and keeps track of line numbers so failures can be reported
// as "source:line".
//
// USAGE:
//   r := feed.NewReader(file, "products.txt", product.NewDeserializer(nil), feed.Options{})
//   for r.Next() {
//       store := r.Record()
//       // Use the record...
//   }
//   if err := r.Err(); err != nil {
//       return err
//   }
//   for _, skipped := range r.Skipped() {
//       // Report the malformed line...
//   }
//
// ERROR POLICY:
//   Skip      malformed lines are collected in Skipped() and logged at warn.
//   FailFast  the first malformed line stops Next() and is returned by Err().
//   Read errors from the underlying io.Reader always stop iteration.
//
// =============================================================================

package feed

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/popiel/code-exercise-services/internal/record"
)

// DefaultMaxLineBytes bounds the length of a single input line.
const DefaultMaxLineBytes = 1 << 20

// Parser turns one line into a record.
type Parser interface {
	Parse(line string) (*record.Store, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(line string) (*record.Store, error)

// Parse calls f(line).
func (f ParserFunc) Parse(line string) (*record.Store, error) { return f(line) }

// Options configures a Reader. The zero value skips malformed lines and
// logs nothing.
type Options struct {
	Policy       Policy
	Logger       *slog.Logger
	MaxLineBytes int
}

// Reader streams records out of a line-oriented input.
type Reader struct {
	scanner *bufio.Scanner
	source  string
	parser  Parser
	policy  Policy
	log     *slog.Logger

	lineNumber int
	text       string
	current    *record.Store
	skipped    []*LineError
	err        error
}

// NewReader returns a reader over r. Source labels errors and log entries
// and may be empty.
func NewReader(r io.Reader, source string, p Parser, opts Options) *Reader {
	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(4096, maxLine)), maxLine)

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Reader{
		scanner: scanner,
		source:  source,
		parser:  p,
		policy:  opts.Policy,
		log:     log,
	}
}

// Next advances to the next well-formed line. It returns false at the end of
// input, on a read error, or on a malformed line under FailFast.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	// bufio.ScanLines already drops the \r of a CRLF ending.
	for r.scanner.Scan() {
		r.lineNumber++
		text := r.scanner.Text()
		if text == "" {
			continue
		}

		store, err := r.parser.Parse(text)
		if err != nil {
			lineErr := &LineError{Source: r.source, Line: r.lineNumber, Err: err}
			if r.policy == FailFast {
				r.err = lineErr
				r.current, r.text = nil, ""
				return false
			}
			r.log.Warn("skipping malformed line",
				"source", r.source,
				"line", r.lineNumber,
				"error", err)
			r.skipped = append(r.skipped, lineErr)
			continue
		}

		r.current, r.text = store, text
		return true
	}

	r.current, r.text = nil, ""
	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("failed to read %s after line %d: %w", r.label(), r.lineNumber, err)
	}
	return false
}

// Record returns the record of the current line.
func (r *Reader) Record() *record.Store { return r.current }

// Text returns the current line as read.
func (r *Reader) Text() string { return r.text }

// Line returns the 1-based number of the last line read.
func (r *Reader) Line() int { return r.lineNumber }

// Skipped returns the malformed lines passed over so far.
func (r *Reader) Skipped() []*LineError { return r.skipped }

// Err returns the error that stopped iteration, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) label() string {
	if r.source == "" {
		return "input"
	}
	return r.source
}
