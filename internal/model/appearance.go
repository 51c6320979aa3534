package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGBA colour. Alpha is 0-255.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque colour.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 0xff}
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("invalid color %q: expected #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex returns "#rrggbb" for opaque colours and "#rrggbbaa" otherwise.
func (c Color) Hex() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Alpha returns the alpha channel as a fraction in [0,1].
func (c Color) Alpha() float64 {
	return float64(c.A) / 255
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// FontWeight follows the CSS numeric weight scale.
type FontWeight int

const (
	FontWeightRegular  FontWeight = 400
	FontWeightMedium   FontWeight = 500
	FontWeightSemibold FontWeight = 600
	FontWeightBold     FontWeight = 700
)

// Font describes the typeface of a toast's text.
type Font struct {
	Family string
	Size   float64
	Weight FontWeight
}

// Insets are the padding between the box edge and its text.
type Insets struct {
	Top, Left, Bottom, Right float64
}

// Offset is a 2D displacement.
type Offset struct {
	X, Y float64
}

// Appearance bundles the visual configuration of a toast.
// It is a plain value and is copied wherever it is used.
type Appearance struct {
	BackgroundColor Color
	TextColor       Color
	Font            Font
	CornerRadius    float64
	TextInsets      Insets
	ShadowColor     Color
	ShadowOpacity   float64
	ShadowRadius    float64
	ShadowOffset    Offset
	DefaultPosition Position
}

// DefaultAppearance returns the type default: white text on translucent black,
// anchored at the bottom center.
func DefaultAppearance() Appearance {
	return Appearance{
		BackgroundColor: Color{A: 0xcc},
		TextColor:       RGB(0xff, 0xff, 0xff),
		Font: Font{
			Family: "sans-serif",
			Size:   14,
			Weight: FontWeightRegular,
		},
		CornerRadius:    10,
		TextInsets:      Insets{Top: 10, Left: 14, Bottom: 10, Right: 14},
		ShadowColor:     RGB(0, 0, 0),
		ShadowOpacity:   0.4,
		ShadowRadius:    6,
		ShadowOffset:    Offset{X: 0, Y: 3},
		DefaultPosition: PositionBottomCenter,
	}
}

// SuccessAppearance is the default with a green background.
func SuccessAppearance() Appearance {
	a := DefaultAppearance()
	a.BackgroundColor = RGB(0x2e, 0x7d, 0x32)
	a.TextColor = RGB(0xff, 0xff, 0xff)
	a.Font.Weight = FontWeightSemibold
	return a
}

// ErrorAppearance is the default with a red background and bold text.
func ErrorAppearance() Appearance {
	a := DefaultAppearance()
	a.BackgroundColor = RGB(0xc6, 0x28, 0x28)
	a.TextColor = RGB(0xff, 0xfb, 0xfb)
	a.Font.Weight = FontWeightBold
	return a
}

// WarningAppearance is the default with an amber background and dark text.
func WarningAppearance() Appearance {
	a := DefaultAppearance()
	a.BackgroundColor = RGB(0xf9, 0xa8, 0x25)
	a.TextColor = RGB(0x21, 0x21, 0x21)
	a.Font.Weight = FontWeightMedium
	return a
}

// Validate checks ranges that a renderer cannot honour.
func (a Appearance) Validate() error {
	var errs []error
	if a.ShadowOpacity < 0 || a.ShadowOpacity > 1 {
		errs = append(errs, fmt.Errorf("shadow opacity must be between 0 and 1, got %v", a.ShadowOpacity))
	}
	if a.CornerRadius < 0 {
		errs = append(errs, fmt.Errorf("corner radius must not be negative, got %v", a.CornerRadius))
	}
	if a.ShadowRadius < 0 {
		errs = append(errs, fmt.Errorf("shadow radius must not be negative, got %v", a.ShadowRadius))
	}
	if a.Font.Size <= 0 {
		errs = append(errs, fmt.Errorf("font size must be positive, got %v", a.Font.Size))
	}
	in := a.TextInsets
	if in.Top < 0 || in.Left < 0 || in.Bottom < 0 || in.Right < 0 {
		errs = append(errs, errors.New("text insets must not be negative"))
	}
	if !a.DefaultPosition.Valid() {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPosition, int(a.DefaultPosition)))
	}
	return errors.Join(errs...)
}

// Style names an appearance preset.
type Style int

const (
	StylePlain Style = iota
	StyleSuccess
	StyleError
	StyleWarning
)

var styleNames = map[Style]string{
	StylePlain:   "plain",
	StyleSuccess: "success",
	StyleError:   "error",
	StyleWarning: "warning",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStyle parses a style name. The empty string is StylePlain.
func ParseStyle(s string) (Style, error) {
	if s == "" || s == "default" {
		return StylePlain, nil
	}
	for style, name := range styleNames {
		if name == s {
			return style, nil
		}
	}
	return StylePlain, fmt.Errorf("invalid style %q, must be one of: plain, success, error, warning", s)
}

// AppearanceFor resolves a preset style. StylePlain returns base unchanged.
func AppearanceFor(style Style, base Appearance) Appearance {
	switch style {
	case StyleSuccess:
		return SuccessAppearance()
	case StyleError:
		return ErrorAppearance()
	case StyleWarning:
		return WarningAppearance()
	default:
		return base
	}
}
