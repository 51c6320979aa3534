package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{in: "#ffffff", want: RGB(255, 255, 255)},
		{in: "#000000cc", want: Color{A: 0xcc}},
		{in: "2e7d32", want: RGB(0x2e, 0x7d, 0x32)},
		{in: "#fff", wantErr: true},
		{in: "#zzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColor_Hex(t *testing.T) {
	assert.Equal(t, "#2e7d32", RGB(0x2e, 0x7d, 0x32).Hex())
	assert.Equal(t, "#000000cc", Color{A: 0xcc}.Hex())
	assert.InDelta(t, 0.8, Color{A: 0xcc}.Alpha(), 0.001)
}

func TestDefaultAppearance_Valid(t *testing.T) {
	a := DefaultAppearance()
	require.NoError(t, a.Validate())
	assert.Equal(t, PositionBottomCenter, a.DefaultPosition)
}

func TestPresets_OnlyColorsAndWeightDiffer(t *testing.T) {
	base := DefaultAppearance()
	presets := map[string]Appearance{
		"success": SuccessAppearance(),
		"error":   ErrorAppearance(),
		"warning": WarningAppearance(),
	}

	type signature struct {
		bg, text Color
		weight   FontWeight
	}
	seen := make(map[signature]string)

	for name, p := range presets {
		t.Run(name, func(t *testing.T) {
			sig := signature{p.BackgroundColor, p.TextColor, p.Font.Weight}
			if other, dup := seen[sig]; dup {
				t.Fatalf("%s has the same colors and weight as %s", name, other)
			}
			seen[sig] = name

			assert.NotEqual(t, base.BackgroundColor, p.BackgroundColor)

			// Everything else is the type default.
			normalized := p
			normalized.BackgroundColor = base.BackgroundColor
			normalized.TextColor = base.TextColor
			normalized.Font.Weight = base.Font.Weight
			assert.Equal(t, base, normalized)
		})
	}
}

func TestAppearance_Validate(t *testing.T) {
	a := DefaultAppearance()
	a.ShadowOpacity = 1.5
	assert.Error(t, a.Validate())

	a = DefaultAppearance()
	a.CornerRadius = -1
	assert.Error(t, a.Validate())

	a = DefaultAppearance()
	a.TextInsets.Left = -2
	assert.Error(t, a.Validate())

	a = DefaultAppearance()
	a.DefaultPosition = Position(12)
	assert.ErrorIs(t, a.Validate(), ErrInvalidPosition)
}

func TestParseStyle(t *testing.T) {
	for _, name := range []string{"plain", "success", "error", "warning"} {
		s, err := ParseStyle(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.String())
	}

	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StylePlain, s)

	_, err = ParseStyle("shiny")
	assert.Error(t, err)
}

func TestAppearanceFor(t *testing.T) {
	custom := DefaultAppearance()
	custom.CornerRadius = 2

	assert.Equal(t, custom, AppearanceFor(StylePlain, custom))
	assert.Equal(t, SuccessAppearance(), AppearanceFor(StyleSuccess, custom))
	assert.Equal(t, ErrorAppearance(), AppearanceFor(StyleError, custom))
	assert.Equal(t, WarningAppearance(), AppearanceFor(StyleWarning, custom))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: DurationShort},
		{in: "short", want: DurationShort},
		{in: "LONG", want: DurationLong},
		{in: "750ms", want: 750 * time.Millisecond},
		{in: "-1s", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
