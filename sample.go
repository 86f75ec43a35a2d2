package cv2pdf

import (
	_ "embed"
	"slices"
)

//go:embed sample.yaml
var sample []byte

// Sample returns a complete example CV that uses every entry variant.
// The returned slice is a copy.
func Sample() []byte {
	return slices.Clone(sample)
}
