package theme

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

// EmbeddedThemes contains the bundled theme stylesheets.
//
//go:embed themes/*.css
var EmbeddedThemes embed.FS

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "default"

// GetEmbeddedTheme retrieves a bundled theme by name.
// @import statements are returned unprocessed; use ProcessImports to inline them.
func GetEmbeddedTheme(name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	data, err := EmbeddedThemes.ReadFile(path.Join("themes", strings.TrimSuffix(name, ".css")+".css"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ListEmbeddedThemes returns the names of all bundled themes, sorted.
func ListEmbeddedThemes() []string {
	entries, err := fs.ReadDir(EmbeddedThemes, "themes")
	if err != nil {
		return []string{DefaultThemeName}
	}

	var themes []string
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".css"); ok && !entry.IsDir() {
			themes = append(themes, name)
		}
	}
	return themes
}

// IsEmbeddedTheme checks if a theme name is bundled.
func IsEmbeddedTheme(name string) bool {
	_, found := GetEmbeddedTheme(name)
	return found
}
