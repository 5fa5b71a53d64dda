package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"caption-timeline-service/internal/caption"
	"caption-timeline-service/internal/models"
	"caption-timeline-service/internal/schema"
)

func newSegmentCommand() *cobra.Command {
	policy := caption.DefaultPolicy()
	var srtPath string

	cmd := &cobra.Command{
		Use:   "segment <words.json>",
		Short: "Regroup a transcription payload into caption phrases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := readWords(args[0])
			if err != nil {
				return err
			}
			phrases, err := caption.Segment(words, policy)
			if err != nil {
				return err
			}

			if srtPath != "" {
				return writeSRT(cmd, srtPath, phrases)
			}

			rows := make([][]string, 0, len(phrases))
			for i, p := range phrases {
				start, _ := caption.FormatTimecode(p.Start)
				end, _ := caption.FormatTimecode(p.End)
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					start,
					end,
					strconv.Itoa(len(p.Words)),
					p.Text,
				})
			}
			writeTable(cmd.OutOrStdout(), []string{"#", "Start", "End", "Words", "Text"}, rows, 1, 4)
			return nil
		},
	}

	cmd.Flags().IntVar(&policy.MaxWordsPerPhrase, "max-words", policy.MaxWordsPerPhrase, "Maximum words per phrase")
	cmd.Flags().Float64Var(&policy.SilenceGapThreshold, "gap", policy.SilenceGapThreshold, "Silence gap in seconds that starts a new phrase")
	cmd.Flags().StringVar(&srtPath, "srt", "", "Write SRT subtitles to this path (- for stdout)")
	return cmd
}

func writeSRT(cmd *cobra.Command, path string, phrases []caption.Phrase) error {
	if path == "-" {
		return caption.WriteSubtitleDocument(cmd.OutOrStdout(), phrases)
	}
	doc, err := caption.ToSubtitleDocument(phrases)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d phrases to %s\n", len(phrases), path)
	return nil
}

func newActiveCommand() *cobra.Command {
	policy := caption.DefaultPolicy()
	var at string

	cmd := &cobra.Command{
		Use:   "active <words.json>",
		Short: "Show the word and phrase active at a playback time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parsePlaybackTime(at)
			if err != nil {
				return err
			}
			words, err := readWords(args[0])
			if err != nil {
				return err
			}
			timeline, err := caption.NewTimeline(policy)
			if err != nil {
				return err
			}
			if _, _, err := timeline.SetWords(words); err != nil {
				return err
			}

			frame := timeline.At(t)
			word, phrase := "-", "-"
			if frame.Word != nil {
				word = frame.Word.Text
			}
			if frame.Phrase != nil {
				phrase = frame.Phrase.Text
			}
			writeTable(cmd.OutOrStdout(),
				[]string{"Time", "Word", "Phrase"},
				[][]string{{strconv.FormatFloat(t, 'f', 3, 64), word, phrase}},
				1,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Playback time in seconds or as HH:MM:SS,mmm")
	cmd.Flags().IntVar(&policy.MaxWordsPerPhrase, "max-words", policy.MaxWordsPerPhrase, "Maximum words per phrase")
	cmd.Flags().Float64Var(&policy.SilenceGapThreshold, "gap", policy.SilenceGapThreshold, "Silence gap in seconds that starts a new phrase")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newTimecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "timecode <seconds>",
		Short: "Format seconds as an SRT timecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid seconds %q", args[0])
			}
			tc, err := caption.FormatTimecode(seconds)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tc)
			return nil
		},
	}
}

// readWords loads either a transcription payload or a bare word array.
func readWords(path string) ([]caption.WordTimestamp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var res models.TranscriptionResult
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		res.Success = true
		err = json.Unmarshal(trimmed, &res.Words)
	} else {
		err = json.Unmarshal(data, &res)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return schema.New(0).Words(&res)
}

func parsePlaybackTime(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, ":") {
		return caption.ParseTimecode(value)
	}
	t, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid playback time %q", value)
	}
	if t < 0 {
		return 0, fmt.Errorf("playback time must be non-negative, got %g", t)
	}
	return t, nil
}
