package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/toastkit/internal/config"
)

// importRegex matches @import "file.css"; @import 'file.css'; and @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a stylesheet layered under the generated per-toast rules.
type Theme struct {
	Name      string    // Theme name (without .css extension)
	Path      string    // Full path to the CSS file (empty when bundled)
	CSS       string    // The CSS content, imports inlined
	ModTime   time.Time // Last modification time
	IsBundled bool
}

// ThemesDir returns the user's themes directory.
func ThemesDir() string {
	return filepath.Join(config.ConfigDir(), "themes")
}

// Resolve finds a theme by name. A file in dir overrides a bundled theme of
// the same name. An empty name is the default theme.
func Resolve(name, dir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if dir != "" {
		themePath := filepath.Join(dir, name+".css")
		if _, err := os.Stat(themePath); err == nil {
			return NewTheme(name, themePath)
		}
	}

	css, ok := GetEmbeddedTheme(name)
	if !ok {
		return nil, fmt.Errorf("theme %q not found in %s or bundled themes %v", name, dir, ListEmbeddedThemes())
	}
	return &Theme{
		Name:      name,
		CSS:       ProcessImports(css, "", nil),
		IsBundled: true,
	}, nil
}

// NewTheme loads a theme from a CSS file. @import statements are inlined.
func NewTheme(name, path string) (*Theme, error) {
	t := &Theme{Name: name, Path: path}
	if _, err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewDefaultTheme returns the bundled default theme.
func NewDefaultTheme() *Theme {
	css, _ := GetEmbeddedTheme(DefaultThemeName)
	return &Theme{
		Name:      DefaultThemeName,
		CSS:       css,
		IsBundled: true,
	}
}

// Reload rereads the theme file. It reports whether the CSS changed.
func (t *Theme) Reload() (bool, error) {
	if t.IsBundled {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, fmt.Errorf("failed to stat theme: %w", err)
	}
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read theme: %w", err)
	}

	css := ProcessImports(string(data), filepath.Dir(t.Path), nil)
	changed := css != t.CSS
	t.CSS = css
	t.ModTime = info.ModTime()
	return changed, nil
}

// ProcessImports inlines @import statements. Relative imports resolve
// against baseDir first, then against the bundled themes.
// seen guards against import cycles.
func ProcessImports(css, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		importPath := importRegex.FindStringSubmatch(match)[1]

		key := importPath
		if baseDir != "" && !filepath.IsAbs(importPath) {
			key = filepath.Join(baseDir, importPath)
		}
		if seen[key] {
			return "/* circular import skipped: " + importPath + " */"
		}
		seen[key] = true

		if baseDir != "" || filepath.IsAbs(importPath) {
			if data, err := os.ReadFile(key); err == nil {
				return ProcessImports(string(data), filepath.Dir(key), seen)
			}
		}
		if embedded, ok := GetEmbeddedTheme(filepath.Base(importPath)); ok {
			return ProcessImports(embedded, "", seen)
		}
		return "/* import not found: " + importPath + " */"
	})
}

// ListAvailableThemes lists bundled themes followed by user themes in dir.
func ListAvailableThemes(dir string) []string {
	seen := make(map[string]bool)
	var themes []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			themes = append(themes, name)
		}
	}

	for _, name := range ListEmbeddedThemes() {
		add(name)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return themes
	}
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".css"); ok && !entry.IsDir() {
			add(name)
		}
	}
	return themes
}
