package model

import (
	"fmt"
	"strings"
	"time"
)

// Fixed presentation timings.
const (
	// FadeDuration is used for fade-in, fade-out and reposition animations.
	FadeDuration = 300 * time.Millisecond

	// EdgeMargin is the gap kept between a toast and the edge it is anchored to.
	EdgeMargin = 20.0
)

// Duration presets for how long a toast stays fully visible.
const (
	DurationShort = 2 * time.Second
	DurationLong  = 3500 * time.Millisecond
)

// ParseDuration accepts a preset name ("short", "long") or a Go duration string.
func ParseDuration(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "short":
		return DurationShort, nil
	case "long":
		return DurationLong, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use short, long or a value like 1.5s: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}
