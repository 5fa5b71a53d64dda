// Package stt defines the contract with the remote transcription collaborator:
// submit a video, receive word timestamps.
package stt

import (
	"context"
	"errors"

	"caption-timeline-service/internal/models"
)

// ErrEmptyVideoURI is returned when a request has no video to transcribe.
var ErrEmptyVideoURI = errors.New("video uri is required")

// Request describes one transcription job.
type Request struct {
	VideoURI     string
	LanguageCode string
	SampleRateHz int
	Encoding     string
}

// Transcriber is implemented by transcription providers (mock, Google, ...).
type Transcriber interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Transcribe blocks until word timestamps are available or ctx ends.
	Transcribe(ctx context.Context, req Request) (*models.TranscriptionResult, error)
}
