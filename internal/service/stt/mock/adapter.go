// Package mock provides a deterministic transcriber for local runs and tests.
// It turns scripted utterances into evenly timed words with a pause between
// utterances, so segmentation policies have real gaps to react to.
package mock

import (
	"context"
	"strings"
	"sync"

	"caption-timeline-service/internal/models"
	"caption-timeline-service/internal/service/stt"
)

// DefaultUtterances is the script used when none is configured.
var DefaultUtterances = []string{
	"I want to cancel my subscription",
	"Yes please go ahead",
	"Can you help me with my account",
	"I've been waiting for over an hour",
	"Thank you very much",
}

// Timing controls how words are laid out in time.
type Timing struct {
	WordDuration float64 // seconds each word lasts
	WordGap      float64 // silence between words of one utterance
	PauseGap     float64 // silence between utterances
}

// DefaultTiming spaces words like relaxed speech.
func DefaultTiming() Timing {
	return Timing{
		WordDuration: 0.32,
		WordGap:      0.08,
		PauseGap:     1.2,
	}
}

// Adapter implements stt.Transcriber with scripted results.
type Adapter struct {
	utterances []string
	timing     Timing

	mu       sync.Mutex
	requests []stt.Request
	err      error
}

// New creates a mock transcriber over the default script.
func New() *Adapter {
	return NewWithScript(DefaultUtterances, DefaultTiming())
}

// NewWithScript creates a mock transcriber over custom utterances.
func NewWithScript(utterances []string, timing Timing) *Adapter {
	return &Adapter{utterances: utterances, timing: timing}
}

// FailWith makes every following Transcribe call return err.
func (a *Adapter) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// Requests returns the requests received so far.
func (a *Adapter) Requests() []stt.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]stt.Request(nil), a.requests...)
}

// Name implements stt.Transcriber.
func (a *Adapter) Name() string {
	return "mock"
}

// Transcribe implements stt.Transcriber.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (*models.TranscriptionResult, error) {
	if strings.TrimSpace(req.VideoURI) == "" {
		return nil, stt.ErrEmptyVideoURI
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.requests = append(a.requests, req)
	failure := a.err
	a.mu.Unlock()

	if failure != nil {
		return nil, failure
	}

	res := &models.TranscriptionResult{Success: true}
	t := 0.0
	for u, utterance := range a.utterances {
		if u > 0 {
			t += a.timing.PauseGap - a.timing.WordGap
		}
		phrase := models.PhrasePayload{Index: u, Text: utterance, Start: t}
		for _, text := range strings.Fields(utterance) {
			w := models.WordPayload{
				Index: len(res.Words),
				Text:  text,
				Start: round3(t),
				End:   round3(t + a.timing.WordDuration),
			}
			res.Words = append(res.Words, w)
			phrase.Words = append(phrase.Words, w)
			t += a.timing.WordDuration + a.timing.WordGap
		}
		if len(phrase.Words) == 0 {
			continue
		}
		phrase.Start = phrase.Words[0].Start
		phrase.End = phrase.Words[len(phrase.Words)-1].End
		res.Phrases = append(res.Phrases, phrase)
	}
	res.Debug = &models.DebugInfo{
		TotalResults:      len(res.Phrases),
		WordCount:         len(res.Words),
		PhraseCount:       len(res.Phrases),
		HasWordTimestamps: true,
	}
	return res, nil
}

// round3 keeps generated times at millisecond precision.
func round3(f float64) float64 {
	return float64(int64(f*1000+0.5)) / 1000
}
