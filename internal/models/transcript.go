// Package models defines the JSON shapes exchanged with the transcription
// collaborator and the caption events published to Kafka.
package models

import "encoding/json"

// WordPayload is one word as returned by the transcription collaborator.
type WordPayload struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// PhrasePayload is a pre-grouped phrase from the collaborator. Words may be
// absent when the collaborator only returns phrase-level timing.
type PhrasePayload struct {
	Index int           `json:"index"`
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []WordPayload `json:"words,omitempty"`
}

// DebugInfo is the collaborator's diagnostic block. Known fields are decoded
// for display; Raw keeps the original bytes so it is passed through untouched.
type DebugInfo struct {
	TotalResults      int  `json:"total_results"`
	WordCount         int  `json:"word_count"`
	PhraseCount       int  `json:"phrase_count"`
	HasWordTimestamps bool `json:"has_word_timestamps"`

	Raw json.RawMessage `json:"-"`
}

// MarshalJSON re-emits the original debug bytes when present.
func (d DebugInfo) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	type plain DebugInfo
	return json.Marshal(plain(d))
}

// UnmarshalJSON decodes the known fields and keeps the raw bytes.
func (d *DebugInfo) UnmarshalJSON(data []byte) error {
	type plain DebugInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = DebugInfo(p)
	d.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// TranscriptionResult is the collaborator's response body.
type TranscriptionResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Words   []WordPayload   `json:"words,omitempty"`
	Phrases []PhrasePayload `json:"phrases,omitempty"`
	Debug   *DebugInfo      `json:"debug,omitempty"`
}

// Event types published by the service.
const (
	EventPhrasesUpdated    = "caption.phrases.updated"
	EventSubtitlesExported = "caption.subtitles.exported"
)

// PhrasesUpdated is published whenever a session's phrase set is replaced.
type PhrasesUpdated struct {
	EventType           string  `json:"eventType"`
	SessionID           string  `json:"sessionId"`
	Timestamp           int64   `json:"timestamp"`
	Revision            uint64  `json:"revision"`
	MaxWordsPerPhrase   int     `json:"maxWordsPerPhrase"`
	SilenceGapThreshold float64 `json:"silenceGapThreshold"`
	WordCount           int     `json:"wordCount"`
	PhraseCount         int     `json:"phraseCount"`
}

// SubtitlesExported is published for every export a session serves.
type SubtitlesExported struct {
	EventType   string `json:"eventType"`
	SessionID   string `json:"sessionId"`
	Timestamp   int64  `json:"timestamp"`
	Revision    uint64 `json:"revision"`
	Format      string `json:"format"`
	PhraseCount int    `json:"phraseCount"`
	Bytes       int    `json:"bytes"`
}
