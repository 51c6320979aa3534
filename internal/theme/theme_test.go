package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSS(t *testing.T, dir, name, css string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(css), 0o644))
	return path
}

func TestProcessImports_NoImports(t *testing.T) {
	css := `.toast-box { color: red; }`
	assert.Equal(t, css, ProcessImports(css, "", nil))
}

func TestProcessImports_NestedFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "_grandchild.css", `.grandchild { color: blue; }`)
	writeCSS(t, dir, "_child.css", `@import "_grandchild.css";
.child { color: green; }`)

	result := ProcessImports(`@import url("_child.css");
.main { color: red; }`, dir, nil)

	assert.Contains(t, result, ".grandchild")
	assert.Contains(t, result, ".child")
	assert.Contains(t, result, ".main")
	assert.NotContains(t, result, "@import")
}

func TestProcessImports_Circular(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "a.css", `@import "b.css"; .a {}`)
	writeCSS(t, dir, "b.css", `@import "a.css"; .b {}`)

	result := ProcessImports(`@import "a.css";`, dir, nil)
	assert.Contains(t, result, "circular import skipped")
	assert.Contains(t, result, ".a {}")
	assert.Contains(t, result, ".b {}")
}

func TestProcessImports_FallsBackToBundled(t *testing.T) {
	result := ProcessImports(`@import "default.css"; .mine {}`, t.TempDir(), nil)
	assert.Contains(t, result, "."+WindowClass)
	assert.Contains(t, result, ".mine {}")

	missing := ProcessImports(`@import "nope.css";`, "", nil)
	assert.Contains(t, missing, "import not found: nope.css")
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()

	bundled, err := Resolve("high-contrast", dir)
	require.NoError(t, err)
	assert.True(t, bundled.IsBundled)
	assert.NotContains(t, bundled.CSS, "@import", "bundled imports are inlined")
	assert.Contains(t, bundled.CSS, "."+WindowClass)

	def, err := Resolve("", dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultThemeName, def.Name)

	path := writeCSS(t, dir, "default.css", `.toast-box { color: hotpink; }`)
	override, err := Resolve("default", dir)
	require.NoError(t, err)
	assert.False(t, override.IsBundled)
	assert.Equal(t, path, override.Path)
	assert.Contains(t, override.CSS, "hotpink")

	_, err = Resolve("missing", dir)
	assert.Error(t, err)
}

func TestTheme_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeCSS(t, dir, "mine.css", `.a {}`)

	theme, err := NewTheme("mine", path)
	require.NoError(t, err)

	changed, err := theme.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	writeCSS(t, dir, "mine.css", `.b {}`)
	changed, err = theme.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `.b {}`, theme.CSS)

	require.NoError(t, os.Remove(path))
	_, err = theme.Reload()
	assert.Error(t, err)

	changed, err = NewDefaultTheme().Reload()
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestListAvailableThemes(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "mine.css", `.a {}`)
	writeCSS(t, dir, "default.css", `.b {}`)
	writeCSS(t, dir, "notes.txt", `x`)

	assert.Equal(t, []string{"default", "high-contrast", "mine"}, ListAvailableThemes(dir))
	assert.Equal(t, []string{"default", "high-contrast"}, ListAvailableThemes(filepath.Join(dir, "absent")))
}
