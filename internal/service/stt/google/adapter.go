// Package google provides a Google Cloud Speech-to-Text transcriber.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog/log"

	"caption-timeline-service/internal/models"
	"caption-timeline-service/internal/service/stt"
)

// recognizer is the slice of the Speech client the adapter needs.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)
	Close() error
}

// clientRecognizer runs a long-running recognition and waits for it.
type clientRecognizer struct {
	client *speech.Client
}

func (c *clientRecognizer) Recognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	op, err := c.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, err
	}
	return op.Wait(ctx)
}

func (c *clientRecognizer) Close() error {
	return c.client.Close()
}

// Adapter implements stt.Transcriber using Google Cloud Speech-to-Text.
type Adapter struct {
	rec recognizer
}

// New creates a new Google transcriber.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{rec: &clientRecognizer{client: c}}, nil
}

// Name implements stt.Transcriber.
func (a *Adapter) Name() string {
	return "google"
}

// Transcribe submits the video URI (gs://...) for recognition with word time
// offsets enabled and converts the result to the collaborator payload.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (*models.TranscriptionResult, error) {
	if strings.TrimSpace(req.VideoURI) == "" {
		return nil, stt.ErrEmptyVideoURI
	}
	lrr, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("videoUri", req.VideoURI).
		Str("languageCode", req.LanguageCode).
		Msg("submitting long running recognition")

	resp, err := a.rec.Recognize(ctx, lrr)
	if err != nil {
		return nil, fmt.Errorf("google speech recognize: %w", err)
	}
	return convert(resp), nil
}

// Close releases the Speech client.
func (a *Adapter) Close() error {
	if a.rec == nil {
		return nil
	}
	return a.rec.Close()
}

func buildRequest(req stt.Request) (*speechpb.LongRunningRecognizeRequest, error) {
	encoding := speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	if req.Encoding != "" {
		v, ok := speechpb.RecognitionConfig_AudioEncoding_value[strings.ToUpper(req.Encoding)]
		if !ok {
			return nil, fmt.Errorf("unsupported audio encoding %q", req.Encoding)
		}
		encoding = speechpb.RecognitionConfig_AudioEncoding(v)
	}
	language := req.LanguageCode
	if language == "" {
		language = "en-US"
	}
	return &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            int32(req.SampleRateHz),
			LanguageCode:               language,
			EnableWordTimeOffsets:      true,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: req.VideoURI},
		},
	}, nil
}

// convert flattens the top alternative of every result into one word list,
// indexed in arrival order. Each result also becomes a pre-grouped phrase.
func convert(resp *speechpb.LongRunningRecognizeResponse) *models.TranscriptionResult {
	res := &models.TranscriptionResult{Success: true}
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		phrase := models.PhrasePayload{Index: len(res.Phrases), Text: strings.TrimSpace(alt.GetTranscript())}
		for _, wi := range alt.GetWords() {
			w := models.WordPayload{
				Index: len(res.Words),
				Text:  wi.GetWord(),
				Start: wi.GetStartTime().AsDuration().Seconds(),
				End:   wi.GetEndTime().AsDuration().Seconds(),
			}
			res.Words = append(res.Words, w)
			phrase.Words = append(phrase.Words, w)
		}
		if len(phrase.Words) == 0 {
			continue
		}
		phrase.Start = phrase.Words[0].Start
		phrase.End = phrase.Words[len(phrase.Words)-1].End
		res.Phrases = append(res.Phrases, phrase)
	}
	res.Debug = &models.DebugInfo{
		TotalResults:      len(resp.GetResults()),
		WordCount:         len(res.Words),
		PhraseCount:       len(res.Phrases),
		HasWordTimestamps: len(res.Words) > 0,
	}
	return res
}
