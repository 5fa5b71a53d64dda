package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"caption-timeline-service/internal/models"
)

func newWatchCommand() *cobra.Command {
	var (
		brokers  string
		topics   []string
		lookback time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow caption events published to Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			lines := make(chan string)
			for _, topic := range topics {
				go consumeTopic(ctx, lines, strings.Split(brokers, ","), topic, lookback)
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case line := <-lines:
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
		},
	}

	cmd.Flags().StringVar(&brokers, "brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	cmd.Flags().StringSliceVar(&topics, "topic", []string{"caption.phrases", "caption.exports"}, "Topics to follow")
	cmd.Flags().DurationVar(&lookback, "since", time.Hour, "Replay events newer than this")
	return cmd
}

// consumeTopic reads partition 0 of topic without a consumer group.
func consumeTopic(ctx context.Context, lines chan<- string, brokers []string, topic string, lookback time.Duration) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-lookback)); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to seek, reading from the committed offset")
	}

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Str("topic", topic).Msg("Kafka read error")
			time.Sleep(time.Second)
			continue
		}

		line, err := describeEvent(msg.Value)
		if err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("skipping undecodable event")
			continue
		}
		select {
		case lines <- line:
		case <-ctx.Done():
			return
		}
	}
}

// describeEvent renders one published caption event as a single line.
func describeEvent(value []byte) (string, error) {
	var envelope struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(value, &envelope); err != nil {
		return "", err
	}

	switch envelope.EventType {
	case models.EventPhrasesUpdated:
		var ev models.PhrasesUpdated
		if err := json.Unmarshal(value, &ev); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s session=%s rev=%d words=%d phrases=%d policy=%d/%gs",
			ev.EventType, ev.SessionID, ev.Revision, ev.WordCount, ev.PhraseCount,
			ev.MaxWordsPerPhrase, ev.SilenceGapThreshold), nil
	case models.EventSubtitlesExported:
		var ev models.SubtitlesExported
		if err := json.Unmarshal(value, &ev); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s session=%s rev=%d format=%s phrases=%d bytes=%d",
			ev.EventType, ev.SessionID, ev.Revision, ev.Format, ev.PhraseCount, ev.Bytes), nil
	default:
		return "", fmt.Errorf("unknown event type %q", envelope.EventType)
	}
}
