package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"caption-timeline-service/internal/caption"
	"caption-timeline-service/internal/models"
)

func TestValidator_WordsPreferredOverPhrases(t *testing.T) {
	v := New(0)
	res := &models.TranscriptionResult{
		Success: true,
		Words: []models.WordPayload{
			{Index: 0, Text: "hi", Start: 0, End: 0.3},
			{Index: 1, Text: "there", Start: 0.4, End: 0.8},
		},
		Phrases: []models.PhrasePayload{{Index: 0, Text: "ignored", Start: 0, End: 1}},
	}

	words, err := v.Words(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(words) != 2 || words[1].Text != "there" {
		t.Errorf("expected the word list to be used, got %+v", words)
	}
}

func TestValidator_FlattensPhrases(t *testing.T) {
	v := New(0)
	res := &models.TranscriptionResult{
		Success: true,
		Phrases: []models.PhrasePayload{
			{Index: 0, Text: "a b", Start: 0, End: 1, Words: []models.WordPayload{
				{Index: 0, Text: "a", Start: 0, End: 0.4},
				{Index: 1, Text: "b", Start: 0.5, End: 1},
			}},
			{Index: 1, Text: "whole phrase", Start: 2, End: 3},
		},
	}

	words, err := v.Words(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	if words[2].Text != "whole phrase" || words[2].Index != 2 || words[2].Start != 2 {
		t.Errorf("expected wordless phrase as one unit, got %+v", words[2])
	}
}

func TestValidator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		v       *Validator
		res     *models.TranscriptionResult
		wantErr error
	}{
		{
			"failure payload",
			New(0),
			&models.TranscriptionResult{Success: false, Error: "quota"},
			ErrFailedTranscription,
		},
		{
			"too many words",
			New(1),
			&models.TranscriptionResult{Success: true, Words: []models.WordPayload{
				{Text: "a", Start: 0, End: 1}, {Index: 1, Text: "b", Start: 1, End: 2},
			}},
			ErrTooManyWords,
		},
		{
			"unsorted",
			New(0),
			&models.TranscriptionResult{Success: true, Words: []models.WordPayload{
				{Text: "a", Start: 2, End: 3}, {Index: 1, Text: "b", Start: 1, End: 2},
			}},
			caption.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.v.Words(tt.res); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidator_EmptyPayloads(t *testing.T) {
	v := New(10)
	for _, res := range []*models.TranscriptionResult{nil, {Success: true}} {
		words, err := v.Words(res)
		if err != nil {
			t.Errorf("expected no error for empty payload, got %v", err)
		}
		if words == nil || len(words) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", words)
		}
	}
}

func TestDebugInfo_PassThrough(t *testing.T) {
	raw := `{"total_results":2,"word_count":5,"phrase_count":1,"has_word_timestamps":true,"model":"latest_long"}`
	var res models.TranscriptionResult
	if err := json.Unmarshal([]byte(`{"success":true,"debug":`+raw+`}`), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Debug == nil || res.Debug.WordCount != 5 || !res.Debug.HasWordTimestamps {
		t.Fatalf("expected decoded debug fields, got %+v", res.Debug)
	}
	out, err := json.Marshal(res.Debug)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Errorf("expected debug bytes untouched, got %s", out)
	}
}

func TestPayload(t *testing.T) {
	in := []caption.WordTimestamp{{Index: 3, Text: "x", Start: 1, End: 2}}
	out := Payload(in)
	if len(out) != 1 || out[0].Index != 3 || out[0].Text != "x" || out[0].End != 2 {
		t.Errorf("unexpected payload %+v", out)
	}
}
