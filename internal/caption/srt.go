package caption

import (
	"fmt"
	"io"
	"strings"
)

// ToSubtitleDocument serializes phrases as an SRT document. Cues are
// numbered 1..N in slice order; any index carried by the words is ignored.
// Every cue, including the last, is followed by a blank line. No phrases
// yields the empty string.
func ToSubtitleDocument(phrases []Phrase) (string, error) {
	var sb strings.Builder
	if err := WriteSubtitleDocument(&sb, phrases); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteSubtitleDocument streams the document produced by ToSubtitleDocument.
// All timecodes are formatted before anything is written, so a validation
// failure never leaves a partial document in w.
func WriteSubtitleDocument(w io.Writer, phrases []Phrase) error {
	cues := make([]string, len(phrases))
	for i, p := range phrases {
		start, err := FormatTimecode(p.Start)
		if err != nil {
			return positioned(err, i)
		}
		end, err := FormatTimecode(p.End)
		if err != nil {
			return positioned(err, i)
		}
		cues[i] = fmt.Sprintf("%d\n%s --> %s\n%s\n\n", i+1, start, end, p.Text)
	}
	for _, cue := range cues {
		if _, err := io.WriteString(w, cue); err != nil {
			return fmt.Errorf("write subtitle cue: %w", err)
		}
	}
	return nil
}

func positioned(err error, i int) error {
	if verr, ok := err.(*ValidationError); ok {
		return &ValidationError{Field: "phrase." + verr.Field, Position: i, Reason: verr.Reason}
	}
	return err
}
