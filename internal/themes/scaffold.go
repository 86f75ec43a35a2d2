package themes

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/yamlutil"
)

// Scaffold creates {dir}/{name}/ as a theme extending base, with a copy of
// base's typst document template to start from. Other files are inherited
// until overridden.
func Scaffold(dir, name string, base Bundle) (string, error) {
	if err := ValidateThemeName(name); err != nil {
		return "", err
	}
	root := filepath.Join(dir, name)
	if _, err := os.Stat(root); err == nil {
		return "", fmt.Errorf("%w: %s", ErrThemeExists, root)
	}

	manifest := Manifest{
		Name:        name,
		Version:     "0.1.0",
		Description: fmt.Sprintf("Custom theme based on %s", base.Name()),
		Extends:     base.Name(),
	}
	data, err := yamlutil.Marshal(manifest)
	if err != nil {
		return "", err
	}

	typstDir := filepath.Join(root, "typst")
	if err := os.MkdirAll(typstDir, 0o750); err != nil {
		return "", fmt.Errorf("%w: %v", ErrThemeRead, err)
	}
	if err := os.WriteFile(filepath.Join(root, ManifestFile), data, 0o600); err != nil {
		return "", fmt.Errorf("%w: %v", ErrThemeRead, err)
	}

	src := ""
	if t, ok := base.(*theme); ok {
		src = t.files[fileName(markup.Typst, DocumentFragment)]
	}
	if src != "" {
		if err := os.WriteFile(filepath.Join(typstDir, DocumentFragment+".tmpl"), []byte(src), 0o600); err != nil {
			return "", fmt.Errorf("%w: %v", ErrThemeRead, err)
		}
	}
	return root, nil
}
