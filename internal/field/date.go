package field

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-cv2pdf/internal/diag"
)

// PresentKeyword is the literal accepted for an ongoing end date.
const PresentKeyword = "present"

// DateFormats lists the accepted date spellings, for error messages.
var DateFormats = []string{"YYYY", "YYYY-MM", "YYYY-MM-DD", PresentKeyword}

// rangeSeparators split a date range written as one string.
var rangeSeparators = []string{" to ", " – ", " — ", " - ", "--"}

var dateRe = regexp.MustCompile(`^(\d{4})(?:-(\d{1,2})(?:-(\d{1,2}))?)?$`)

// Date is a point in time with year, optional month and optional day, or
// the open end "present". A zero Month or Day means the part is absent.
type Date struct {
	Year    int
	Month   int
	Day     int
	Present bool
}

// Today returns the concrete date of t.
func Today(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Compare orders dates: -1 if d < o, 0 if equal, +1 if d > o. Present is
// greater than every concrete date. Absent parts compare as zero, so 2020
// sorts before 2020-01.
func (d Date) Compare(o Date) int {
	switch {
	case d.Present && o.Present:
		return 0
	case d.Present:
		return 1
	case o.Present:
		return -1
	}
	if c := cmp.Compare(d.Year, o.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, o.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, o.Day)
}

// String returns the canonical input spelling of d.
func (d Date) String() string {
	switch {
	case d.Present:
		return PresentKeyword
	case d.Day > 0:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case d.Month > 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d", d.Year)
	}
}

// ParseDate accepts "YYYY", "YYYY-MM", "YYYY-MM-DD" or "present" (any
// case), and the integers and timestamps YAML produces for such values.
func ParseDate(v any) (Date, error) {
	switch t := v.(type) {
	case string:
		return parseDateString(t)
	case int:
		return yearDate(int64(t))
	case int64:
		return yearDate(t)
	case uint64:
		if t > 9999 {
			return Date{}, invalidDate(strconv.FormatUint(t, 10))
		}
		return yearDate(int64(t))
	case time.Time:
		return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
	case nil:
		return Date{}, diag.New("", "must not be null")
	default:
		return Date{}, invalidDate(fmt.Sprint(v))
	}
}

func parseDateString(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, PresentKeyword) {
		return Date{Present: true}, nil
	}
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return Date{}, invalidDate(raw)
	}
	d := Date{}
	d.Year, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		d.Month, _ = strconv.Atoi(m[2])
		if d.Month < 1 || d.Month > 12 {
			return Date{}, diag.Newf("", "month %d out of range in %q", d.Month, raw)
		}
	}
	if m[3] != "" {
		d.Day, _ = strconv.Atoi(m[3])
		t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
		if d.Day < 1 || t.Day() != d.Day {
			return Date{}, diag.Newf("", "day %d out of range in %q", d.Day, raw)
		}
	}
	return d, nil
}

func yearDate(y int64) (Date, error) {
	if y < 1 || y > 9999 {
		return Date{}, invalidDate(strconv.FormatInt(y, 10))
	}
	return Date{Year: int(y)}, nil
}

func invalidDate(raw string) *diag.ValidationError {
	return diag.Newf("", "invalid date %q", raw).WithAllowed(DateFormats...)
}

// DateOrRange is a single date (End == nil) or a range from Start to End.
type DateOrRange struct {
	Start Date
	End   *Date
}

// IsRange reports whether r has an end.
func (r DateOrRange) IsRange() bool { return r.End != nil }

// Single wraps d as a DateOrRange without end.
func Single(d Date) (DateOrRange, error) {
	if d.Present {
		return DateOrRange{}, diag.New("", `a single date cannot be "present"`)
	}
	return DateOrRange{Start: d}, nil
}

// NewRange builds a range and fails when start is after end.
func NewRange(start, end Date) (DateOrRange, error) {
	if start.Present {
		return DateOrRange{}, diag.New("", `start date cannot be "present"`)
	}
	if start.Compare(end) > 0 {
		return DateOrRange{}, diag.Newf("", "start date %s is after end date %s", start, end)
	}
	return DateOrRange{Start: start, End: &end}, nil
}

// ParseRange parses both bounds and builds the range.
func ParseRange(start, end any) (DateOrRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateOrRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateOrRange{}, err
	}
	return NewRange(s, e)
}

// ParseDateExpr parses a single date, or two dates joined by one of
// " to ", " - ", " – ", " — " or "--".
func ParseDateExpr(v any) (DateOrRange, error) {
	s, ok := v.(string)
	if !ok {
		d, err := ParseDate(v)
		if err != nil {
			return DateOrRange{}, err
		}
		return Single(d)
	}
	for _, sep := range rangeSeparators {
		if before, after, found := strings.Cut(s, sep); found {
			return ParseRange(strings.TrimSpace(before), strings.TrimSpace(after))
		}
	}
	d, err := ParseDate(s)
	if err != nil {
		return DateOrRange{}, err
	}
	return Single(d)
}
