package surface

import "github.com/jmylchreest/toastkit/internal/model"

// Anchor is the edge or axis a box is pinned to along one dimension.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorCenter
	AnchorEnd
)

func (a Anchor) String() string {
	switch a {
	case AnchorStart:
		return "start"
	case AnchorCenter:
		return "center"
	case AnchorEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Constraints pin a toast box inside Bounds. Offsets are measured inwards
// from the anchored edge; they are ignored for AnchorCenter.
type Constraints struct {
	Bounds     model.Rect
	Horizontal Anchor
	MarginX    float64
	Vertical   Anchor
	MarginY    float64
	// Avoiding is set when the vertical anchor was moved above an obstruction.
	Avoiding bool
}

// Layout computes the constraints for position inside bounds given the
// current obstruction height.
//
// Edge rows and columns keep model.EdgeMargin from their edge; the middle row
// and the center column sit on the bounds' centre axis. When an obstruction is
// visible and the position is near it, the box is horizontally centred with
// its bottom edge EdgeMargin above the obstruction.
func Layout(pos model.Position, bounds model.Rect, obstructionHeight float64) Constraints {
	c := Constraints{Bounds: bounds}

	switch pos.Column() {
	case model.ColumnLeft:
		c.Horizontal, c.MarginX = AnchorStart, model.EdgeMargin
	case model.ColumnRight:
		c.Horizontal, c.MarginX = AnchorEnd, model.EdgeMargin
	default:
		c.Horizontal = AnchorCenter
	}

	switch pos.Row() {
	case model.RowTop:
		c.Vertical, c.MarginY = AnchorStart, model.EdgeMargin
	case model.RowBottom:
		c.Vertical, c.MarginY = AnchorEnd, model.EdgeMargin
	default:
		c.Vertical = AnchorCenter
	}

	if obstructionHeight > 0 && pos.IsNearObstruction() {
		c.Horizontal, c.MarginX = AnchorCenter, 0
		c.Vertical, c.MarginY = AnchorEnd, obstructionHeight+model.EdgeMargin
		c.Avoiding = true
	}

	return c
}

// Frame resolves the constraints into a concrete rectangle for a box of size.
func (c Constraints) Frame(size model.Size) model.Rect {
	return model.Rect{
		X: place(c.Horizontal, c.Bounds.X, c.Bounds.W, size.W, c.MarginX),
		Y: place(c.Vertical, c.Bounds.Y, c.Bounds.H, size.H, c.MarginY),
		W: size.W,
		H: size.H,
	}
}

func place(a Anchor, origin, extent, length, margin float64) float64 {
	switch a {
	case AnchorStart:
		return origin + margin
	case AnchorEnd:
		return origin + extent - margin - length
	default:
		return origin + (extent-length)/2
	}
}
