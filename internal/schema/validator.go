// Package schema turns transcription payloads into validated caption words.
package schema

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"caption-timeline-service/internal/caption"
	"caption-timeline-service/internal/models"
)

var (
	// ErrFailedTranscription is returned for payloads with success=false.
	ErrFailedTranscription = errors.New("transcription reported failure")
	// ErrTooManyWords is returned when a payload exceeds the word limit.
	ErrTooManyWords = errors.New("too many words")
)

// Validator checks transcription payloads against the caption input contract.
type Validator struct {
	maxWords int
}

// New creates a validator. maxWords <= 0 disables the size check.
func New(maxWords int) *Validator {
	return &Validator{maxWords: maxWords}
}

// Words extracts the word list from a payload.
//
// The word list wins when present. Otherwise the words of pre-grouped phrases
// are flattened; a phrase without words is taken as one timed unit. Indexes
// are kept as sent. The result satisfies caption.ValidateWords or an error
// is returned; nothing is reordered or repaired.
func (v *Validator) Words(res *models.TranscriptionResult) ([]caption.WordTimestamp, error) {
	if res == nil {
		return []caption.WordTimestamp{}, nil
	}
	if !res.Success && res.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrFailedTranscription, res.Error)
	}

	var words []caption.WordTimestamp
	switch {
	case len(res.Words) > 0:
		words = fromPayload(res.Words)
	case len(res.Phrases) > 0:
		words = fromPhrases(res.Phrases)
	default:
		words = []caption.WordTimestamp{}
	}

	if v.maxWords > 0 && len(words) > v.maxWords {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyWords, len(words), v.maxWords)
	}
	if err := caption.ValidateWords(words); err != nil {
		return nil, err
	}

	log.Debug().
		Int("words", len(words)).
		Int("phrases", len(res.Phrases)).
		Msg("transcription payload validated")
	return words, nil
}

// Payload converts words back to their wire shape for exports.
func Payload(words []caption.WordTimestamp) []models.WordPayload {
	out := make([]models.WordPayload, len(words))
	for i, w := range words {
		out[i] = models.WordPayload{Index: w.Index, Text: w.Text, Start: w.Start, End: w.End}
	}
	return out
}

func fromPayload(in []models.WordPayload) []caption.WordTimestamp {
	out := make([]caption.WordTimestamp, len(in))
	for i, w := range in {
		out[i] = caption.WordTimestamp{Index: w.Index, Text: w.Text, Start: w.Start, End: w.End}
	}
	return out
}

func fromPhrases(in []models.PhrasePayload) []caption.WordTimestamp {
	var out []caption.WordTimestamp
	for _, p := range in {
		if len(p.Words) == 0 {
			out = append(out, caption.WordTimestamp{Index: len(out), Text: p.Text, Start: p.Start, End: p.End})
			continue
		}
		out = append(out, fromPayload(p.Words)...)
	}
	return out
}
