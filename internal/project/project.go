// Package project encodes and decodes caption project documents: the word
// list, segmentation policy and overlay style bundled for later reload.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"caption-timeline-service/internal/caption"
	"caption-timeline-service/internal/style"
)

// CurrentVersion is written into every encoded document.
const CurrentVersion = 1

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	ErrUnknownFormat      = errors.New("unknown project format")
	ErrUnsupportedVersion = errors.New("unsupported project version")
)

// ParseFormat maps a user supplied name to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the HTTP media type for the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Document is the persisted shape of a project.
type Document struct {
	Version int                        `json:"version" yaml:"version"`
	Words   []caption.WordTimestamp    `json:"words" yaml:"words"`
	Policy  caption.SegmentationPolicy `json:"policy" yaml:"policy"`
	Style   style.Config               `json:"style" yaml:"style"`
	Debug   json.RawMessage            `json:"debug,omitempty" yaml:"-"`
}

// Validate checks the document against the caption and style contracts.
func (d *Document) Validate() error {
	if d.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	if err := d.Policy.Validate(); err != nil {
		return err
	}
	if err := caption.ValidateWords(d.Words); err != nil {
		return err
	}
	if err := d.Style.Validate(); err != nil {
		return fmt.Errorf("style: %w", err)
	}
	return nil
}

// Encode renders d in the given format. JSON is indented by two spaces.
func Encode(d *Document, f Format) ([]byte, error) {
	d.Version = CurrentVersion
	if d.Words == nil {
		d.Words = []caption.WordTimestamp{}
	}
	switch f {
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("encode yaml project: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml project: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Decode parses and validates a document.
func Decode(data []byte, f Format) (*Document, error) {
	var d Document
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode json project: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode yaml project: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if d.Words == nil {
		d.Words = []caption.WordTimestamp{}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// EncodeWords renders the word list verbatim as indented JSON.
func EncodeWords(words []caption.WordTimestamp) ([]byte, error) {
	if words == nil {
		words = []caption.WordTimestamp{}
	}
	return json.MarshalIndent(words, "", "  ")
}
