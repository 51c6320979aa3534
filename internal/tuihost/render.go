package tuihost

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastkit/internal/model"
)

// maxBoxWidth caps toast width in cells.
const maxBoxWidth = 48

// boxStyle turns an appearance into a lipgloss style. Below full opacity
// the box is drawn faint; fully transparent boxes are not drawn at all.
func boxStyle(a model.Appearance, opacity float64) lipgloss.Style {
	style := lipgloss.NewStyle().
		Background(hexColor(a.BackgroundColor)).
		Foreground(hexColor(a.TextColor)).
		Padding(cells(a.TextInsets.Top, CellHeight), cells(a.TextInsets.Right, CellWidth),
			cells(a.TextInsets.Bottom, CellHeight), cells(a.TextInsets.Left, CellWidth)).
		Align(lipgloss.Center)

	if a.CornerRadius > 0 {
		style = style.Border(lipgloss.RoundedBorder()).
			BorderForeground(hexColor(a.BackgroundColor))
	}
	if a.Font.Weight >= model.FontWeightSemibold {
		style = style.Bold(true)
	}
	if opacity < 1 {
		style = style.Faint(true)
	}
	return style
}

// renderBox renders the text of a view, wrapped to fit maxWidth cells.
func renderBox(text string, a model.Appearance, opacity float64, maxWidth int) string {
	style := boxStyle(a, opacity)
	width := min(maxWidth, maxBoxWidth)
	textWidth := width - style.GetHorizontalFrameSize()
	if textWidth < 1 {
		textWidth = 1
	}
	if lipgloss.Width(text) > textWidth {
		style = style.Width(textWidth + style.GetHorizontalPadding())
	}
	return style.Render(text)
}

// hexColor drops alpha; terminals have no translucency.
func hexColor(c model.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// cells converts layout units to whole cells.
func cells(units, size float64) int {
	return int(math.Round(units / size))
}

// canvas is a screen of rows; each row is a plain prefix of spaces followed
// by at most one styled segment. Overlapping boxes share rows and the later
// box wins.
type canvas struct {
	rows []string
}

func newCanvas(rows int) *canvas {
	return &canvas{rows: make([]string, max(rows, 0))}
}

func (c *canvas) draw(col, row int, block string) {
	for i, line := range strings.Split(block, "\n") {
		r := row + i
		if r < 0 || r >= len(c.rows) {
			continue
		}
		c.rows[r] = strings.Repeat(" ", max(col, 0)) + line
	}
}

func (c *canvas) String() string {
	return strings.Join(c.rows, "\n")
}

// Render draws every visible view into a screen of the current size.
func (h *Host) Render() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := newCanvas(h.rows)
	for _, v := range h.views {
		if v.opacity <= 0 {
			continue
		}
		box := renderBox(v.content.Text(), v.appearance, v.opacity, h.cols)
		size := model.Size{
			W: float64(lipgloss.Width(box)) * CellWidth,
			H: float64(lipgloss.Height(box)) * CellHeight,
		}
		frame := v.constraints.Frame(size)
		c.draw(cells(frame.X, CellWidth), cells(frame.Y, CellHeight), box)
	}
	return c.String()
}
