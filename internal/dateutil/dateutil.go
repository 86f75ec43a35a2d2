// Package dateutil formats CV dates with user-friendly layout tokens and
// locale month names.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alnah/go-cv2pdf/internal/field"
)

// ErrInvalidDateFormat indicates an invalid date layout string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits layout length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat renders "Sep 2018".
const DefaultDateFormat = "MMM YYYY"

type part int

const (
	literal part = iota
	year
	month
	day
)

// dateTokens ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	part  part
}{
	{"YYYY", year},
	{"MMMM", month},
	{"MMM", month},
	{"YY", year},
	{"MM", month},
	{"DD", day},
	{"M", month},
	{"D", day},
}

type segment struct {
	part part
	text string // token, or literal text
}

// Layout is a compiled date layout.
type Layout struct {
	segments []segment
}

// Names holds the month names used by the MMMM and MMM tokens.
type Names struct {
	Months        [12]string
	Abbreviations [12]string
}

// Parse compiles a layout.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D.
// Use brackets to escape literal text: [Date] preserves "Date" literally.
// Any non-token characters outside brackets are preserved as literals.
// A layout must contain a year token.
func Parse(layout string) (Layout, error) {
	if layout == "" {
		return Layout{}, fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(layout) > MaxDateFormatLength {
		return Layout{}, fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var l Layout
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			l.segments = append(l.segments, segment{part: literal, text: lit.String()})
			lit.Reset()
		}
	}
	hasYear := false

	i := 0
	for i < len(layout) {
		if layout[i] == '[' {
			end := strings.Index(layout[i+1:], "]")
			if end == -1 {
				return Layout{}, fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			lit.WriteString(layout[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(layout[i:], t.token) {
				flush()
				l.segments = append(l.segments, segment{part: t.part, text: t.token})
				hasYear = hasYear || t.part == year
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			lit.WriteByte(layout[i])
			i++
		}
	}
	flush()

	if !hasYear {
		return Layout{}, fmt.Errorf("%w: %q has no year token", ErrInvalidDateFormat, layout)
	}
	return l, nil
}

// Format renders d. Parts the date lacks are dropped together with the
// literal that separates them from the rest, so "MMM YYYY" renders a
// year-only date as "2018". A present date yields the empty string; callers
// substitute the locale word.
func (l Layout) Format(d field.Date, n Names) string {
	if d.Present {
		return ""
	}
	segs := l.segments
	if d.Day == 0 {
		segs = drop(segs, day)
	}
	if d.Month == 0 {
		segs = drop(segs, month)
	}

	var b strings.Builder
	for _, s := range segs {
		switch s.part {
		case literal:
			b.WriteString(s.text)
		case year:
			if s.text == "YY" {
				fmt.Fprintf(&b, "%02d", d.Year%100)
			} else {
				fmt.Fprintf(&b, "%04d", d.Year)
			}
		case month:
			b.WriteString(monthText(s.text, d.Month, n))
		case day:
			if s.text == "DD" {
				fmt.Fprintf(&b, "%02d", d.Day)
			} else {
				b.WriteString(strconv.Itoa(d.Day))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func monthText(token string, m int, n Names) string {
	switch token {
	case "MMMM":
		return n.Months[m-1]
	case "MMM":
		return n.Abbreviations[m-1]
	case "MM":
		return fmt.Sprintf("%02d", m)
	default:
		return strconv.Itoa(m)
	}
}

// drop removes every segment of part p and one adjacent literal: the one
// after it, or the one before it when the token ends the layout.
func drop(segs []segment, p part) []segment {
	out := make([]segment, 0, len(segs))
	for i := 0; i < len(segs); i++ {
		s := segs[i]
		if s.part != p {
			out = append(out, s)
			continue
		}
		if i+1 < len(segs) && segs[i+1].part == literal {
			i++
			continue
		}
		if n := len(out); n > 0 && out[n-1].part == literal {
			out = out[:n-1]
		}
	}
	return out
}

// Format compiles layout and renders d with it.
func Format(d field.Date, layout string, n Names) (string, error) {
	l, err := Parse(layout)
	if err != nil {
		return "", err
	}
	return l.Format(d, n), nil
}
