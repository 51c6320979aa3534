// Package model defines the value types shared by the toast engine:
// positions, appearance presets, timing constants and message content.
package model

import (
	"crypto/rand"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Content validation errors.
var (
	ErrEmptyContent  = errors.New("toast content cannot be empty")
	ErrInvalidMarkup = errors.New("invalid markup")
)

// Content is the text of a toast: either plain text or styled markup, never both.
// The zero value is empty and rejected by toast construction.
type Content struct {
	plain  string
	markup string
	styled bool
}

// PlainContent returns content that is rendered verbatim.
func PlainContent(text string) (Content, error) {
	if strings.TrimSpace(text) == "" {
		return Content{}, ErrEmptyContent
	}
	return Content{plain: text}, nil
}

// StyledContent returns content carrying Pango-style markup
// (<b>, <i>, <span foreground="...">, ...).
func StyledContent(markup string) (Content, error) {
	if strings.TrimSpace(markup) == "" {
		return Content{}, ErrEmptyContent
	}
	plain, err := stripMarkup(markup)
	if err != nil {
		return Content{}, err
	}
	if strings.TrimSpace(plain) == "" {
		return Content{}, ErrEmptyContent
	}
	return Content{plain: plain, markup: markup, styled: true}, nil
}

// IsEmpty reports whether neither form is populated.
func (c Content) IsEmpty() bool {
	return c.plain == "" && c.markup == ""
}

// IsStyled reports whether the content was built from markup.
func (c Content) IsStyled() bool {
	return c.styled
}

// Markup returns the styled form, or "" for plain content.
func (c Content) Markup() string {
	return c.markup
}

// Text returns the plain string projection of the content.
func (c Content) Text() string {
	return c.plain
}

// Truncated returns the plain text collapsed to one line and cut to maxLen runes.
func (c Content) Truncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	text := []rune(strings.Join(strings.Fields(c.plain), " "))
	if len(text) <= maxLen {
		return string(text)
	}
	if maxLen <= 3 {
		return string(text[:maxLen])
	}
	return string(text[:maxLen-3]) + "..."
}

// stripMarkup drops tags and decodes entities, keeping character data only.
func stripMarkup(markup string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader("<markup>" + markup + "</markup>"))
	dec.Strict = true

	var b strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidMarkup, err)
		}
		if data, ok := tok.(xml.CharData); ok {
			b.Write(data)
		}
	}
	return b.String(), nil
}

// NewID returns a new time-ordered toast identifier.
func NewID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}
