package style

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("expected default style to be valid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"bad text color", func(c *Config) { c.TextColor = "white" }, ErrInvalidColor},
		{"bad highlight", func(c *Config) { c.HighlightColor = "#12" }, ErrInvalidColor},
		{"short hex ok", func(c *Config) { c.OutlineColor = "#000" }, nil},
		{"position too high", func(c *Config) { c.PositionPercent = 101 }, ErrOutOfRange},
		{"negative position", func(c *Config) { c.PositionPercent = -1 }, ErrOutOfRange},
		{"NaN position", func(c *Config) { c.PositionPercent = math.NaN() }, ErrOutOfRange},
		{"infinite position", func(c *Config) { c.PositionPercent = math.Inf(1) }, ErrOutOfRange},
		{"zero font size", func(c *Config) { c.FontSize = 0 }, ErrOutOfRange},
		{"weight too light", func(c *Config) { c.FontWeight = 50 }, ErrOutOfRange},
		{"empty family", func(c *Config) { c.FontFamily = " " }, ErrOutOfRange},
		{"negative gap", func(c *Config) { c.WordGap = -2 }, ErrOutOfRange},
		{"unknown case", func(c *Config) { c.TextCase = "shouty" }, ErrInvalidTextCase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ReportsFirstBadColor(t *testing.T) {
	c := Default()
	c.TextColor = "white"
	c.HighlightColor = "gold"
	c.OutlineColor = "black"

	for i := 0; i < 20; i++ {
		err := c.Validate()
		if err == nil || !strings.HasPrefix(err.Error(), "textColor:") {
			t.Fatalf("expected textColor error, got %v", err)
		}
	}
}

func TestApplyCase(t *testing.T) {
	tests := []struct {
		textCase TextCase
		expected string
	}{
		{CaseNone, "hello World"},
		{CaseUpper, "HELLO WORLD"},
		{CaseLower, "hello world"},
		{CaseTitle, "Hello World"},
	}
	for _, tt := range tests {
		c := Default()
		c.TextCase = tt.textCase
		if got := c.ApplyCase("hello World"); got != tt.expected {
			t.Errorf("ApplyCase(%s) = %q, want %q", tt.textCase, got, tt.expected)
		}
	}
}
