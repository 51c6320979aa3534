// Package theme styles toast windows with GTK CSS.
// A bundled or user theme from ~/.config/toastkit/themes/ supplies the base
// rules, and each toast's appearance is rendered to CSS scoped to its window.
package theme
