package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmylchreest/toastkit/internal/model"
)

// CSS class names used by toast windows.
const (
	WindowClass = "toast-window"
	BoxClass    = "toast-box"
	LabelClass  = "toast-label"
)

// StyleClass returns the class added to the toast box for a preset style.
func StyleClass(style model.Style) string {
	return "toast-" + style.String()
}

// ViewClass returns the class that scopes the generated rules of one view.
func ViewClass(id uint64) string {
	return "toast-view-" + strconv.FormatUint(id, 10)
}

// ShadowMargin is the room left around the box so the shadow is not clipped.
func ShadowMargin(a model.Appearance) int {
	if a.ShadowOpacity <= 0 || a.ShadowColor.A == 0 {
		return 0
	}
	off := max(math.Abs(a.ShadowOffset.X), math.Abs(a.ShadowOffset.Y))
	return int(math.Ceil(a.ShadowRadius + off))
}

// ViewCSS renders the appearance of one toast as CSS scoped to class.
func ViewCSS(class string, a model.Appearance) string {
	var b strings.Builder
	in := a.TextInsets

	fmt.Fprintf(&b, ".%s .%s {\n", class, BoxClass)
	fmt.Fprintf(&b, "  background-color: %s;\n", cssColor(a.BackgroundColor, 1))
	fmt.Fprintf(&b, "  color: %s;\n", cssColor(a.TextColor, 1))
	fmt.Fprintf(&b, "  border-radius: %spx;\n", num(a.CornerRadius))
	fmt.Fprintf(&b, "  padding: %spx %spx %spx %spx;\n", num(in.Top), num(in.Right), num(in.Bottom), num(in.Left))
	fmt.Fprintf(&b, "  margin: %dpx;\n", ShadowMargin(a))
	if ShadowMargin(a) > 0 {
		fmt.Fprintf(&b, "  box-shadow: %spx %spx %spx %s;\n",
			num(a.ShadowOffset.X), num(a.ShadowOffset.Y), num(a.ShadowRadius),
			cssColor(a.ShadowColor, a.ShadowOpacity))
	} else {
		b.WriteString("  box-shadow: none;\n")
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, ".%s .%s {\n", class, LabelClass)
	fmt.Fprintf(&b, "  font-family: %s;\n", fontFamily(a.Font.Family))
	fmt.Fprintf(&b, "  font-size: %spt;\n", num(a.Font.Size))
	fmt.Fprintf(&b, "  font-weight: %d;\n", int(a.Font.Weight))
	b.WriteString("}\n")

	return b.String()
}

// cssColor renders c with its alpha multiplied by opacity.
func cssColor(c model.Color, opacity float64) string {
	alpha := c.Alpha() * opacity
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, num(math.Round(alpha*1000)/1000))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// fontFamily quotes family names; generic families stay bare.
func fontFamily(family string) string {
	switch family {
	case "", "sans-serif", "serif", "monospace", "cursive", "fantasy", "system-ui":
		if family == "" {
			return "sans-serif"
		}
		return family
	}
	return strconv.Quote(family)
}
