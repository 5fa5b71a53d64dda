// Package caption implements the caption timeline engine: regrouping
// timestamped words into phrases, resolving the active word and phrase for a
// playback time, and serializing phrases into SRT subtitles.
//
// Everything in this package is pure computation. Nothing here blocks, logs
// or performs I/O beyond writing to a caller supplied io.Writer.
package caption

import (
	"math"
	"strings"
)

// WordTimestamp is one recognized word and its interval in seconds.
type WordTimestamp struct {
	Index int     `json:"index" yaml:"index"`
	Text  string  `json:"text" yaml:"text"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Bounds returns the closed interval covered by the word.
func (w WordTimestamp) Bounds() (float64, float64) {
	return w.Start, w.End
}

// Duration returns End - Start. Zero-length words are legal.
func (w WordTimestamp) Duration() float64 {
	return w.End - w.Start
}

// Phrase is a derived group of consecutive words. It is a view over a word
// list and is never stored on its own.
type Phrase struct {
	Start float64         `json:"start" yaml:"start"`
	End   float64         `json:"end" yaml:"end"`
	Text  string          `json:"text" yaml:"text"`
	Words []WordTimestamp `json:"words" yaml:"words"`
}

// Bounds returns the closed interval covered by the phrase.
func (p Phrase) Bounds() (float64, float64) {
	return p.Start, p.End
}

// SegmentationPolicy controls where phrase boundaries fall.
type SegmentationPolicy struct {
	MaxWordsPerPhrase   int     `json:"maxWordsPerPhrase" yaml:"maxWordsPerPhrase" toml:"max_words_per_phrase"`
	SilenceGapThreshold float64 `json:"silenceGapThreshold" yaml:"silenceGapThreshold" toml:"silence_gap_threshold"`
}

// DefaultPolicy returns the policy used when a session has not chosen one.
func DefaultPolicy() SegmentationPolicy {
	return SegmentationPolicy{
		MaxWordsPerPhrase:   3,
		SilenceGapThreshold: 0.5,
	}
}

// Validate checks the policy bounds.
func (p SegmentationPolicy) Validate() error {
	if p.MaxWordsPerPhrase < 1 {
		return invalid("maxWordsPerPhrase", -1, "must be at least 1, got %d", p.MaxWordsPerPhrase)
	}
	if math.IsNaN(p.SilenceGapThreshold) || math.IsInf(p.SilenceGapThreshold, 0) {
		return invalid("silenceGapThreshold", -1, "must be finite")
	}
	if p.SilenceGapThreshold < 0 {
		return invalid("silenceGapThreshold", -1, "must be non-negative, got %g", p.SilenceGapThreshold)
	}
	return nil
}

// ValidateWords checks the input contract of the segmenter: every word is
// well formed and the sequence is sorted by start. Overlapping intervals are
// accepted.
func ValidateWords(words []WordTimestamp) error {
	for i, w := range words {
		if err := validateWord(i, w); err != nil {
			return err
		}
		if i > 0 && w.Start < words[i-1].Start {
			return invalid("start", i, "words not sorted by start: %g after %g", w.Start, words[i-1].Start)
		}
	}
	return nil
}

func validateWord(i int, w WordTimestamp) *ValidationError {
	switch {
	case w.Index < 0:
		return invalid("index", i, "must be non-negative, got %d", w.Index)
	case strings.TrimSpace(w.Text) == "":
		return invalid("text", i, "must not be empty")
	case !finite(w.Start):
		return invalid("start", i, "must be finite")
	case !finite(w.End):
		return invalid("end", i, "must be finite")
	case w.Start < 0:
		return invalid("start", i, "must be non-negative, got %g", w.Start)
	case w.End < w.Start:
		return invalid("end", i, "end %g before start %g", w.End, w.Start)
	case w.End >= MaxSeconds:
		return invalid("end", i, "must be below %d, got %g", MaxSeconds, w.End)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
