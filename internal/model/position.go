package model

import (
	"errors"
	"fmt"
)

// ErrInvalidPosition is returned when a position name cannot be parsed.
var ErrInvalidPosition = errors.New("invalid position")

// Row is the vertical band of a Position.
type Row int

const (
	RowTop Row = iota
	RowMiddle
	RowBottom
)

// Column is the horizontal band of a Position.
type Column int

const (
	ColumnLeft Column = iota
	ColumnCenter
	ColumnRight
)

// Position is one of the nine placement slots of a toast.
type Position int

const (
	PositionTopLeft Position = iota
	PositionTopCenter
	PositionTopRight
	PositionMiddleLeft
	PositionMiddleCenter
	PositionMiddleRight
	PositionBottomLeft
	PositionBottomCenter
	PositionBottomRight
)

var positionNames = [...]string{
	PositionTopLeft:      "top-left",
	PositionTopCenter:    "top-center",
	PositionTopRight:     "top-right",
	PositionMiddleLeft:   "middle-left",
	PositionMiddleCenter: "middle-center",
	PositionMiddleRight:  "middle-right",
	PositionBottomLeft:   "bottom-left",
	PositionBottomCenter: "bottom-center",
	PositionBottomRight:  "bottom-right",
}

// ValidPositions returns all positions in row-major order.
func ValidPositions() []Position {
	positions := make([]Position, len(positionNames))
	for i := range positionNames {
		positions[i] = Position(i)
	}
	return positions
}

// Valid reports whether p is one of the nine known positions.
func (p Position) Valid() bool {
	return p >= PositionTopLeft && p <= PositionBottomRight
}

// Row returns the vertical band of the position.
func (p Position) Row() Row {
	return Row(int(p) / 3)
}

// Column returns the horizontal band of the position.
func (p Position) Column() Column {
	return Column(int(p) % 3)
}

// IsNearObstruction reports whether an on-screen keyboard rising from the
// bottom edge can cover a toast at this position (middle and bottom rows).
func (p Position) IsNearObstruction() bool {
	return p.Valid() && p.Row() != RowTop
}

func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("position(%d)", int(p))
	}
	return positionNames[p]
}

// ParsePosition parses a position name such as "bottom-center".
// "top", "middle"/"center" and "bottom" are accepted as the centered slot of that row.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "top":
		return PositionTopCenter, nil
	case "middle", "center":
		return PositionMiddleCenter, nil
	case "bottom":
		return PositionBottomCenter, nil
	}
	for i, name := range positionNames {
		if name == s {
			return Position(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q, must be one of: %v", ErrInvalidPosition, s, ValidPositions())
}

// MarshalText implements encoding.TextMarshaler.
func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
