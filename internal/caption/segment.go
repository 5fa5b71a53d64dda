package caption

import (
	"errors"
	"strings"
)

// Segment groups words into phrases in one greedy left-to-right pass.
//
// After appending each word the current phrase is closed when any of these
// holds: the phrase reached policy.MaxWordsPerPhrase words, the word is the
// last one, or the silence before the next word
// (next.Start - word.End) exceeds policy.SilenceGapThreshold.
//
// A gap always closes the phrase on the word just before the silence. The
// output partitions the input: flattening it gives back the words in order.
// Zero words yield zero phrases and no error.
func Segment(words []WordTimestamp, policy SegmentationPolicy) ([]Phrase, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateWords(words); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return []Phrase{}, nil
	}

	phrases := make([]Phrase, 0, len(words)/policy.MaxWordsPerPhrase+1)
	from := 0
	for i := range words {
		last := i == len(words)-1
		full := i-from+1 >= policy.MaxWordsPerPhrase
		gap := !last && words[i+1].Start-words[i].End > policy.SilenceGapThreshold
		if full || last || gap {
			phrases = append(phrases, newPhrase(words[from:i+1]))
			from = i + 1
		}
	}
	return phrases, nil
}

// SegmentResult runs Segment and classifies the outcome.
func SegmentResult(words []WordTimestamp, policy SegmentationPolicy) Result {
	phrases, err := Segment(words, policy)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return Result{Status: StatusInvalid, Err: verr}
		}
		return Result{Status: StatusInvalid, Err: invalid("input", -1, "%v", err)}
	}
	if len(phrases) == 0 {
		return Result{Status: StatusEmpty, Phrases: phrases}
	}
	return Result{Status: StatusOK, Phrases: phrases}
}

// Flatten concatenates the words of every phrase, in order.
func Flatten(phrases []Phrase) []WordTimestamp {
	n := 0
	for _, p := range phrases {
		n += len(p.Words)
	}
	words := make([]WordTimestamp, 0, n)
	for _, p := range phrases {
		words = append(words, p.Words...)
	}
	return words
}

// newPhrase copies buf so later phrases never alias the caller's slice.
func newPhrase(buf []WordTimestamp) Phrase {
	words := make([]WordTimestamp, len(buf))
	copy(words, buf)

	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.Text)
	}
	return Phrase{
		Start: words[0].Start,
		End:   words[len(words)-1].End,
		Text:  sb.String(),
		Words: words,
	}
}
