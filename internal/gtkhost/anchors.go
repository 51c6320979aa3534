package gtkhost

import (
	"math"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastkit/internal/surface"
)

// placement is a resolved layer-shell configuration. Unanchored axes are
// centred by the compositor.
type placement struct {
	top, bottom, left, right bool
	marginX, marginY         int
}

func placementFor(c surface.Constraints) placement {
	var p placement

	switch c.Horizontal {
	case surface.AnchorStart:
		p.left = true
		p.marginX = px(c.MarginX)
	case surface.AnchorEnd:
		p.right = true
		p.marginX = px(c.MarginX)
	}

	switch c.Vertical {
	case surface.AnchorStart:
		p.top = true
		p.marginY = px(c.MarginY)
	case surface.AnchorEnd:
		p.bottom = true
		p.marginY = px(c.MarginY)
	}

	return p
}

// sameAnchors reports whether only the margins differ, so a move can be animated.
func (p placement) sameAnchors(o placement) bool {
	return p.top == o.top && p.bottom == o.bottom && p.left == o.left && p.right == o.right
}

// lerp interpolates margins towards o; t is in [0,1].
func (p placement) lerp(o placement, t float64) placement {
	p.marginX = int(math.Round(float64(p.marginX) + float64(o.marginX-p.marginX)*t))
	p.marginY = int(math.Round(float64(p.marginY) + float64(o.marginY-p.marginY)*t))
	return p
}

func (p placement) apply(w *gtk.Window) {
	layershell.SetAnchor(w, layershell.LayerShellEdgeTop, p.top)
	layershell.SetAnchor(w, layershell.LayerShellEdgeBottom, p.bottom)
	layershell.SetAnchor(w, layershell.LayerShellEdgeLeft, p.left)
	layershell.SetAnchor(w, layershell.LayerShellEdgeRight, p.right)

	layershell.SetMargin(w, layershell.LayerShellEdgeTop, edgeMargin(p.top, p.marginY))
	layershell.SetMargin(w, layershell.LayerShellEdgeBottom, edgeMargin(p.bottom, p.marginY))
	layershell.SetMargin(w, layershell.LayerShellEdgeLeft, edgeMargin(p.left, p.marginX))
	layershell.SetMargin(w, layershell.LayerShellEdgeRight, edgeMargin(p.right, p.marginX))
}

func edgeMargin(anchored bool, margin int) int {
	if anchored {
		return margin
	}
	return 0
}

func px(f float64) int {
	return int(math.Round(f))
}
