// Package style holds the caption overlay configuration read by the renderer.
// The caption engine never interprets it; it only travels with sessions and
// project documents.
package style

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TextCase is the case transform applied to caption text.
type TextCase string

const (
	CaseNone  TextCase = "none"
	CaseUpper TextCase = "upper"
	CaseLower TextCase = "lower"
	CaseTitle TextCase = "title"
)

// Config is the overlay style for one session.
type Config struct {
	FontFamily      string   `json:"fontFamily" yaml:"fontFamily"`
	FontSize        int      `json:"fontSize" yaml:"fontSize"`
	FontWeight      int      `json:"fontWeight" yaml:"fontWeight"`
	TextColor       string   `json:"textColor" yaml:"textColor"`
	HighlightColor  string   `json:"highlightColor" yaml:"highlightColor"`
	OutlineWidth    int      `json:"outlineWidth" yaml:"outlineWidth"`
	OutlineColor    string   `json:"outlineColor" yaml:"outlineColor"`
	Shadow          bool     `json:"shadow" yaml:"shadow"`
	PositionPercent float64  `json:"positionPercent" yaml:"positionPercent"`
	TextCase        TextCase `json:"textCase" yaml:"textCase"`
	WordGap         int      `json:"wordGap" yaml:"wordGap"`
}

// Default returns the style new sessions start with.
func Default() Config {
	return Config{
		FontFamily:      "Inter",
		FontSize:        48,
		FontWeight:      800,
		TextColor:       "#FFFFFF",
		HighlightColor:  "#FFD700",
		OutlineWidth:    3,
		OutlineColor:    "#000000",
		Shadow:          true,
		PositionPercent: 80,
		TextCase:        CaseNone,
		WordGap:         8,
	}
}

var (
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidTextCase = errors.New("invalid text case")
	ErrOutOfRange      = errors.New("value out of range")
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Validate checks every field a renderer would otherwise have to guard.
func (c Config) Validate() error {
	if strings.TrimSpace(c.FontFamily) == "" {
		return fmt.Errorf("fontFamily: %w: must not be empty", ErrOutOfRange)
	}
	if c.FontSize <= 0 || c.FontSize > 512 {
		return fmt.Errorf("fontSize: %w: %d", ErrOutOfRange, c.FontSize)
	}
	if c.FontWeight < 100 || c.FontWeight > 900 {
		return fmt.Errorf("fontWeight: %w: %d", ErrOutOfRange, c.FontWeight)
	}
	if c.OutlineWidth < 0 || c.OutlineWidth > 64 {
		return fmt.Errorf("outlineWidth: %w: %d", ErrOutOfRange, c.OutlineWidth)
	}
	if math.IsNaN(c.PositionPercent) || math.IsInf(c.PositionPercent, 0) ||
		c.PositionPercent < 0 || c.PositionPercent > 100 {
		return fmt.Errorf("positionPercent: %w: %g", ErrOutOfRange, c.PositionPercent)
	}
	if c.WordGap < 0 || c.WordGap > 256 {
		return fmt.Errorf("wordGap: %w: %d", ErrOutOfRange, c.WordGap)
	}
	for _, color := range []struct{ name, value string }{
		{"textColor", c.TextColor},
		{"highlightColor", c.HighlightColor},
		{"outlineColor", c.OutlineColor},
	} {
		if !hexColor.MatchString(color.value) {
			return fmt.Errorf("%s: %w: %q", color.name, ErrInvalidColor, color.value)
		}
	}
	switch c.TextCase {
	case CaseNone, CaseUpper, CaseLower, CaseTitle:
	default:
		return fmt.Errorf("textCase: %w: %q", ErrInvalidTextCase, c.TextCase)
	}
	return nil
}

// ApplyCase transforms text according to the configured case.
func (c Config) ApplyCase(text string) string {
	switch c.TextCase {
	case CaseUpper:
		return cases.Upper(language.Und).String(text)
	case CaseLower:
		return cases.Lower(language.Und).String(text)
	case CaseTitle:
		return cases.Title(language.Und).String(text)
	default:
		return text
	}
}
