// Package diag defines the diagnostics reported while validating a CV:
// field-level validation errors, their aggregation, and non-fatal warnings.
package diag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation error")

// ValidationError reports a user input problem at a field path such as
// "cv.sections.experience[0].start_date".
type ValidationError struct {
	Path    string
	Reason  string
	Allowed []string // acceptable values, when the set is closed
	Missing []string // missing names, e.g. theme fragments
}

// New returns a ValidationError for path.
func New(path, reason string) *ValidationError {
	return &ValidationError{Path: path, Reason: reason}
}

// Newf returns a ValidationError with a formatted reason.
func Newf(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	if len(e.Missing) > 0 {
		b.WriteString(" (missing: ")
		b.WriteString(strings.Join(e.Missing, ", "))
		b.WriteString(")")
	}
	if len(e.Allowed) > 0 {
		b.WriteString(" (allowed: ")
		b.WriteString(strings.Join(e.Allowed, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// WithAllowed sets the list of acceptable values and returns e.
func (e *ValidationError) WithAllowed(allowed ...string) *ValidationError {
	e.Allowed = allowed
	return e
}

// AtPath returns a copy of e re-rooted under prefix. Validators report
// paths relative to the value they check; callers prefix them.
func (e *ValidationError) AtPath(prefix string) *ValidationError {
	c := *e
	c.Path = Join(prefix, e.Path)
	return &c
}

// Errors aggregates independent validation errors so that a user can fix
// every problem in one round-trip.
type Errors []*ValidationError

// Add appends err. A nil err is ignored. An Errors value is flattened, any
// other error is recorded with an empty path.
func (es *Errors) Add(err error) {
	if err == nil {
		return
	}
	var many Errors
	if errors.As(err, &many) {
		*es = append(*es, many...)
		return
	}
	var one *ValidationError
	if errors.As(err, &one) {
		*es = append(*es, one)
		return
	}
	*es = append(*es, &ValidationError{Reason: err.Error()})
}

// AddAt appends err re-rooted under prefix.
func (es *Errors) AddAt(prefix string, err error) {
	if err == nil {
		return
	}
	var sub Errors
	sub.Add(err)
	for _, e := range sub {
		*es = append(*es, e.AtPath(prefix))
	}
}

// Err returns nil when no error was recorded, es otherwise.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

func (es Errors) Error() string {
	if len(es) == 1 {
		return "validation failed: " + es[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed with %d errors:", len(es))
	for i, e := range es {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, e.Error())
	}
	return b.String()
}

func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// Warning is a non-fatal diagnostic, such as a locale fallback.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// Join concatenates path segments with dots. Index segments ("[2]") are
// appended without a dot.
func Join(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Index formats a sequence index path segment.
func Index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
