package field

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-cv2pdf/internal/diag"
)

// namedColors are the predefined colors of the typst standard library.
var namedColors = map[string]string{
	"black":   "#000000",
	"gray":    "#aaaaaa",
	"silver":  "#dddddd",
	"white":   "#ffffff",
	"navy":    "#001f3f",
	"blue":    "#0074d9",
	"aqua":    "#7fdbff",
	"teal":    "#39cccc",
	"eastern": "#239dad",
	"purple":  "#b10dc9",
	"fuchsia": "#f012be",
	"maroon":  "#85144b",
	"red":     "#ff4136",
	"orange":  "#ff851b",
	"yellow":  "#ffdc00",
	"olive":   "#3d9970",
	"green":   "#2ecc40",
	"lime":    "#01ff70",
}

var rgbRe = regexp.MustCompile(`\d+`)

// ColorNames returns the accepted color names in lexical order.
func ColorNames() []string {
	names := make([]string, 0, len(namedColors))
	for n := range namedColors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Color accepts "#rgb", "#rrggbb", "rgb(r, g, b)" or a color name and
// returns the lower-case "#rrggbb" form.
func Color(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if hex, ok := namedColors[s]; ok {
		return hex, nil
	}
	switch {
	case strings.HasPrefix(s, "#"):
		if err := validate.Var(s, "hexcolor"); err != nil || (len(s) != 4 && len(s) != 7) {
			return "", diag.Newf("", "invalid hex color %q; use #rgb or #rrggbb", raw)
		}
		if len(s) == 4 {
			s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
		}
		return s, nil
	case strings.HasPrefix(s, "rgb("):
		if err := validate.Var(s, "rgb"); err != nil || strings.Contains(s, "%") {
			return "", diag.Newf("", "invalid rgb color %q", raw)
		}
		parts := rgbRe.FindAllString(s, 3)
		var b strings.Builder
		b.WriteByte('#')
		for _, p := range parts {
			n, _ := strconv.Atoi(p)
			fmt.Fprintf(&b, "%02x", n)
		}
		return b.String(), nil
	default:
		return "", diag.Newf("", "unknown color %q", raw).WithAllowed(ColorNames()...)
	}
}

// DimensionUnits lists the accepted length units.
var DimensionUnits = []string{"pt", "mm", "cm", "in", "em"}

var dimensionRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(pt|mm|cm|in|em)$`)

// Dimension accepts a non-negative number followed by a unit, such as
// "10pt" or "1.5 cm", and returns it without inner spaces.
func Dimension(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	m := dimensionRe.FindStringSubmatch(s)
	if m == nil {
		return "", diag.Newf("", "invalid dimension %q", raw).WithAllowed(DimensionUnits...)
	}
	return m[1] + m[2], nil
}
