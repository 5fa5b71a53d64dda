package caption

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func words(spans ...[2]float64) []WordTimestamp {
	out := make([]WordTimestamp, len(spans))
	for i, s := range spans {
		out[i] = WordTimestamp{Index: i, Text: fmt.Sprintf("w%d", i), Start: s[0], End: s[1]}
	}
	return out
}

// evenWords returns n back-to-back words of 0.3s with 0.1s between them.
func evenWords(n int) []WordTimestamp {
	out := make([]WordTimestamp, n)
	for i := range out {
		start := float64(i) * 0.4
		out[i] = WordTimestamp{Index: i, Text: fmt.Sprintf("w%d", i), Start: start, End: start + 0.3}
	}
	return out
}

func TestSegment_EmptyInput(t *testing.T) {
	phrases, err := Segment(nil, DefaultPolicy())
	if err != nil {
		t.Fatalf("expected no error for empty input, got %v", err)
	}
	if len(phrases) != 0 {
		t.Errorf("expected 0 phrases, got %d", len(phrases))
	}

	doc, err := ToSubtitleDocument(phrases)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != "" {
		t.Errorf("expected empty document, got %q", doc)
	}
}

func TestSegment_SingleWordClosesOnEndOfInput(t *testing.T) {
	in := words([2]float64{1, 2})
	phrases, err := Segment(in, SegmentationPolicy{MaxWordsPerPhrase: 5, SilenceGapThreshold: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(phrases) != 1 {
		t.Fatalf("expected 1 phrase, got %d", len(phrases))
	}
	p := phrases[0]
	if p.Start != 1 || p.End != 2 || p.Text != "w0" || len(p.Words) != 1 {
		t.Errorf("unexpected phrase: %+v", p)
	}
}

func TestSegment_GapBreak(t *testing.T) {
	in := []WordTimestamp{
		{Index: 0, Text: "hello", Start: 0, End: 0.4},
		{Index: 1, Text: "world", Start: 1.5, End: 1.8},
	}
	phrases, err := Segment(in, SegmentationPolicy{MaxWordsPerPhrase: 10, SilenceGapThreshold: 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(phrases) != 2 {
		t.Fatalf("expected 2 phrases, got %d", len(phrases))
	}
	for i, p := range phrases {
		if len(p.Words) != 1 {
			t.Errorf("phrase %d: expected 1 word, got %d", i, len(p.Words))
		}
	}
	if phrases[0].Text != "hello" || phrases[1].Text != "world" {
		t.Errorf("unexpected texts: %q, %q", phrases[0].Text, phrases[1].Text)
	}
}

func TestSegment_GapEqualToThresholdDoesNotBreak(t *testing.T) {
	in := words([2]float64{0, 1}, [2]float64{1.5, 2})
	phrases, err := Segment(in, SegmentationPolicy{MaxWordsPerPhrase: 10, SilenceGapThreshold: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(phrases) != 1 {
		t.Errorf("expected gap == threshold to keep one phrase, got %d", len(phrases))
	}
}

func TestSegment_GapClosesOnWordBeforeSilence(t *testing.T) {
	// w2 is followed by a long pause; the phrase must end exactly at w2.
	in := words(
		[2]float64{0, 0.2}, [2]float64{0.3, 0.5}, [2]float64{0.6, 0.8},
		[2]float64{3.0, 3.2}, [2]float64{3.3, 3.5},
	)
	phrases, err := Segment(in, SegmentationPolicy{MaxWordsPerPhrase: 10, SilenceGapThreshold: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(phrases) != 2 {
		t.Fatalf("expected 2 phrases, got %d", len(phrases))
	}
	if phrases[0].Text != "w0 w1 w2" {
		t.Errorf("expected first phrase 'w0 w1 w2', got %q", phrases[0].Text)
	}
	if phrases[0].End != 0.8 || phrases[1].Start != 3.0 {
		t.Errorf("unexpected boundaries: end=%g start=%g", phrases[0].End, phrases[1].Start)
	}
}

func TestSegment_CountLimit(t *testing.T) {
	for k := 1; k <= 6; k++ {
		for n := 0; n <= 20; n++ {
			in := evenWords(n)
			phrases, err := Segment(in, SegmentationPolicy{MaxWordsPerPhrase: k, SilenceGapThreshold: 1})
			if err != nil {
				t.Fatalf("k=%d n=%d: unexpected error: %v", k, n, err)
			}
			for i, p := range phrases {
				if i < len(phrases)-1 && len(p.Words) != k {
					t.Errorf("k=%d n=%d phrase %d: expected %d words, got %d", k, n, i, k, len(p.Words))
				}
				if len(p.Words) == 0 || len(p.Words) > k {
					t.Errorf("k=%d n=%d phrase %d: bad size %d", k, n, i, len(p.Words))
				}
			}
		}
	}
}

func TestSegment_MaxOneWordGivesOnePhrasePerWord(t *testing.T) {
	in := evenWords(7)
	phrases, err := Segment(in, SegmentationPolicy{MaxWordsPerPhrase: 1, SilenceGapThreshold: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(phrases) != len(in) {
		t.Errorf("expected %d phrases, got %d", len(in), len(phrases))
	}
}

func TestSegment_Partition(t *testing.T) {
	inputs := map[string][]WordTimestamp{
		"even":        evenWords(11),
		"gappy":       words([2]float64{0, 0.1}, [2]float64{2, 2.1}, [2]float64{2.2, 2.3}, [2]float64{9, 9.5}),
		"overlapping": words([2]float64{0, 2}, [2]float64{0.5, 1}, [2]float64{1, 3}, [2]float64{1, 1}),
		"zero length": words([2]float64{1, 1}, [2]float64{1, 1}, [2]float64{1, 1}),
	}
	policies := []SegmentationPolicy{
		{MaxWordsPerPhrase: 1, SilenceGapThreshold: 0},
		{MaxWordsPerPhrase: 2, SilenceGapThreshold: 0.05},
		{MaxWordsPerPhrase: 3, SilenceGapThreshold: 0.5},
		{MaxWordsPerPhrase: 100, SilenceGapThreshold: 10},
	}

	for name, in := range inputs {
		for _, policy := range policies {
			t.Run(fmt.Sprintf("%s/%d-%g", name, policy.MaxWordsPerPhrase, policy.SilenceGapThreshold), func(t *testing.T) {
				phrases, err := Segment(in, policy)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := Flatten(phrases); !reflect.DeepEqual(got, in) {
					t.Errorf("flattened phrases do not reproduce input:\n got %+v\nwant %+v", got, in)
				}
				if len(phrases) > len(in) {
					t.Errorf("expected at most %d phrases, got %d", len(in), len(phrases))
				}
				for i, p := range phrases {
					if p.Start != p.Words[0].Start || p.End != p.Words[len(p.Words)-1].End {
						t.Errorf("phrase %d bounds do not match its words: %+v", i, p)
					}
				}
			})
		}
	}
}

func TestSegment_Idempotent(t *testing.T) {
	in := words(
		[2]float64{0, 0.2}, [2]float64{0.25, 0.5}, [2]float64{1.4, 1.6},
		[2]float64{1.65, 1.9}, [2]float64{1.95, 2.2}, [2]float64{2.25, 2.4}, [2]float64{5, 5.5},
	)
	policy := SegmentationPolicy{MaxWordsPerPhrase: 2, SilenceGapThreshold: 0.6}

	first, err := Segment(in, policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Segment(Flatten(first), policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-segmenting changed the phrases:\n first %+v\nsecond %+v", first, second)
	}
}

func TestSegment_DoesNotAliasInput(t *testing.T) {
	in := evenWords(4)
	phrases, err := Segment(in, SegmentationPolicy{MaxWordsPerPhrase: 2, SilenceGapThreshold: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in[0].Text = "mutated"
	if phrases[0].Words[0].Text != "w0" {
		t.Errorf("phrase words alias the input slice")
	}
}

func TestSegment_ValidationErrors(t *testing.T) {
	ok := SegmentationPolicy{MaxWordsPerPhrase: 3, SilenceGapThreshold: 0.5}
	tests := []struct {
		name     string
		words    []WordTimestamp
		policy   SegmentationPolicy
		field    string
		position int
	}{
		{"unsorted", words([2]float64{1, 2}, [2]float64{0.5, 0.7}), ok, "start", 1},
		{"end before start", words([2]float64{1, 0.5}), ok, "end", 0},
		{"negative start", words([2]float64{-1, 0.5}), ok, "start", 0},
		{"end beyond timecode range", words([2]float64{0, 1e19}), ok, "end", 0},
		{"empty text", []WordTimestamp{{Index: 0, Text: "  ", Start: 0, End: 1}}, ok, "text", 0},
		{"negative index", []WordTimestamp{{Index: -1, Text: "a", Start: 0, End: 1}}, ok, "index", 0},
		{"zero max words", evenWords(2), SegmentationPolicy{MaxWordsPerPhrase: 0}, "maxWordsPerPhrase", -1},
		{"negative gap", evenWords(2), SegmentationPolicy{MaxWordsPerPhrase: 1, SilenceGapThreshold: -0.1}, "silenceGapThreshold", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phrases, err := Segment(tt.words, tt.policy)
			if err == nil {
				t.Fatalf("expected validation error, got %d phrases", len(phrases))
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected errors.Is(err, ErrValidation), got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field || verr.Position != tt.position {
				t.Errorf("expected field %s at %d, got %s at %d", tt.field, tt.position, verr.Field, verr.Position)
			}
		})
	}
}

func TestSegmentResult_Statuses(t *testing.T) {
	policy := DefaultPolicy()

	if r := SegmentResult(nil, policy); r.Status != StatusEmpty || r.Err != nil {
		t.Errorf("expected StatusEmpty with no error, got %v %v", r.Status, r.Err)
	}
	if r := SegmentResult(evenWords(4), policy); r.Status != StatusOK || len(r.Phrases) == 0 {
		t.Errorf("expected StatusOK with phrases, got %v (%d phrases)", r.Status, len(r.Phrases))
	}
	r := SegmentResult(words([2]float64{2, 3}, [2]float64{1, 2}), policy)
	if r.Status != StatusInvalid || r.Err == nil || r.Phrases != nil {
		t.Errorf("expected StatusInvalid with error and no phrases, got %+v", r)
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusOK, "OK"},
		{StatusEmpty, "EMPTY"},
		{StatusInvalid, "INVALID"},
		{Status(42), "UNKNOWN(42)"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.expected {
			t.Errorf("Status(%d).String() = %v, want %v", tt.status, got, tt.expected)
		}
	}
}
