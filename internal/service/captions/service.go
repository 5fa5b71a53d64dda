// Package captions coordinates caption sessions: it feeds transcription
// results into each session's timeline, serves phrases and playback frames,
// and publishes an event for every regroup and export.
package captions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"caption-timeline-service/internal/caption"
	"caption-timeline-service/internal/events"
	"caption-timeline-service/internal/models"
	"caption-timeline-service/internal/observability/logging"
	"caption-timeline-service/internal/observability/metrics"
	"caption-timeline-service/internal/project"
	"caption-timeline-service/internal/schema"
	"caption-timeline-service/internal/service/session"
	"caption-timeline-service/internal/service/stt"
	"caption-timeline-service/internal/style"
)

// ErrTranscriber wraps failures of the transcription collaborator.
var ErrTranscriber = errors.New("transcriber failed")

var errEmptyResult = errors.New("transcriber returned no result")

// Limits defines guardrails for session work. Zero disables a limit.
type Limits struct {
	MaxWords    int // words per transcript
	MaxSessions int // open sessions
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxWords:    50000,
		MaxSessions: 1000,
	}
}

// Options configures a Service.
type Options struct {
	Policy            caption.SegmentationPolicy
	Style             style.Config
	Limits            Limits
	LanguageCode      string
	SampleRateHz      int
	Encoding          string
	TranscribeTimeout time.Duration
}

// DefaultOptions returns options with the default policy and style.
func DefaultOptions() Options {
	return Options{
		Policy:            caption.DefaultPolicy(),
		Style:             style.Default(),
		Limits:            DefaultLimits(),
		LanguageCode:      "en-US",
		SampleRateHz:      16000,
		Encoding:          "LINEAR16",
		TranscribeTimeout: 5 * time.Minute,
	}
}

// Summary describes a session for API responses.
type Summary struct {
	ID          string                     `json:"id"`
	State       string                     `json:"state"`
	CreatedAt   time.Time                  `json:"createdAt"`
	Revision    uint64                     `json:"revision"`
	WordCount   int                        `json:"wordCount"`
	PhraseCount int                        `json:"phraseCount"`
	Policy      caption.SegmentationPolicy `json:"policy"`
	Style       style.Config               `json:"style"`
	VideoURI    string                     `json:"videoUri,omitempty"`
	LastError   string                     `json:"lastError,omitempty"`
}

// PhraseView is a phrase with its text transformed by the session style.
type PhraseView struct {
	Index   int                     `json:"index"`
	Start   float64                 `json:"start"`
	End     float64                 `json:"end"`
	Text    string                  `json:"text"`
	Display string                  `json:"display"`
	Words   []caption.WordTimestamp `json:"words"`
}

// Service manages caption sessions.
type Service struct {
	store       *session.Store
	transcriber stt.Transcriber
	validator   *schema.Validator
	publisher   *events.Publisher
	metrics     *metrics.Metrics
	opts        Options
	now         func() time.Time
}

// New creates a caption service. A nil m uses metrics.DefaultMetrics.
func New(transcriber stt.Transcriber, publisher *events.Publisher, m *metrics.Metrics, opts Options) *Service {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Service{
		store:       session.NewStore(opts.Limits.MaxSessions),
		transcriber: transcriber,
		validator:   schema.New(opts.Limits.MaxWords),
		publisher:   publisher,
		metrics:     m,
		opts:        opts,
		now:         time.Now,
	}
}

// Ready reports whether the service can accept work.
func (s *Service) Ready() bool {
	return s.transcriber != nil && s.publisher != nil
}

// Create opens a session with the default policy and style. A non-nil
// payload is loaded into it immediately.
func (s *Service) Create(ctx context.Context, payload *models.TranscriptionResult) (*Summary, error) {
	sess, err := s.store.Create(s.opts.Policy, s.opts.Style)
	if err != nil {
		if errors.Is(err, session.ErrLimitExceeded) {
			s.metrics.RecordLimitExceeded("sessions")
		}
		return nil, err
	}
	s.metrics.RecordSessionOpened()
	logger := logging.WithSession(sess.ID())
	logger.Info().Msg("Session created")

	if payload != nil {
		if err := s.load(ctx, sess, payload); err != nil {
			s.store.Delete(sess.ID())
			s.metrics.RecordSessionClosed()
			return nil, err
		}
	}
	return s.summary(sess), nil
}

// Get returns the session summary.
func (s *Service) Get(id string) (*Summary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return s.summary(sess), nil
}

// List returns summaries of all open sessions.
func (s *Service) List() []*Summary {
	sessions := s.store.List()
	out := make([]*Summary, len(sessions))
	for i, sess := range sessions {
		out[i] = s.summary(sess)
	}
	return out
}

// Delete closes a session.
func (s *Service) Delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.metrics.RecordSessionClosed()
	logger := logging.WithSession(id)
	logger.Info().Msg("Session closed")
	return nil
}

// Transcribe submits videoURI to the transcriber and loads the resulting
// words. Only one transcription per session runs at a time.
func (s *Service) Transcribe(ctx context.Context, id, videoURI string) (*Summary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(videoURI) == "" {
		return nil, stt.ErrEmptyVideoURI
	}
	if err := sess.Lifecycle().Begin(); err != nil {
		return nil, err
	}
	sess.SetVideoURI(videoURI)

	logger := logging.WithTranscription(id, s.transcriber.Name(), videoURI)
	logger.Info().Msg("Transcription started")

	tctx, cancel := context.WithTimeout(ctx, s.opts.TranscribeTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.transcriber.Transcribe(tctx, stt.Request{
		VideoURI:     videoURI,
		LanguageCode: s.opts.LanguageCode,
		SampleRateHz: s.opts.SampleRateHz,
		Encoding:     s.opts.Encoding,
	})
	if err == nil && res == nil {
		err = errEmptyResult
	}
	if err == nil && !res.Success {
		err = fmt.Errorf("%w: %s", schema.ErrFailedTranscription, res.Error)
	}
	s.metrics.RecordTranscription(s.transcriber.Name(), err, time.Since(start).Seconds())
	if err != nil {
		sess.Lifecycle().Fail(err)
		logger.Error().Err(err).Msg("Transcription failed")
		return nil, fmt.Errorf("%w: %v", ErrTranscriber, err)
	}

	words, err := s.validator.Words(res)
	if err != nil {
		sess.Lifecycle().Fail(err)
		s.recordRejection(err)
		logger.Error().Err(err).Msg("Transcription payload rejected")
		return nil, fmt.Errorf("%w: %w", ErrTranscriber, err)
	}
	if err := s.setWords(ctx, sess, words); err != nil {
		sess.Lifecycle().Fail(err)
		return nil, err
	}
	if res.Debug != nil {
		sess.SetDebug(res.Debug.Raw)
	}
	if err := sess.Lifecycle().Complete(); err != nil {
		return nil, err
	}

	logger.Info().
		Int("words", len(words)).
		Dur("latency", time.Since(start)).
		Msg("Transcription completed")
	return s.summary(sess), nil
}

// LoadWords replaces the session's words with those of payload.
func (s *Service) LoadWords(ctx context.Context, id string, payload *models.TranscriptionResult) (*Summary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx, sess, payload); err != nil {
		return nil, err
	}
	return s.summary(sess), nil
}

func (s *Service) load(ctx context.Context, sess *session.Session, payload *models.TranscriptionResult) error {
	words, err := s.validator.Words(payload)
	if err != nil {
		s.recordRejection(err)
		return err
	}
	if err := sess.Lifecycle().Load(); err != nil {
		return err
	}
	if err := s.setWords(ctx, sess, words); err != nil {
		return err
	}
	if payload != nil && payload.Debug != nil {
		sess.SetDebug(payload.Debug.Raw)
	}
	return nil
}

func (s *Service) setWords(ctx context.Context, sess *session.Session, words []caption.WordTimestamp) error {
	start := time.Now()
	snap, changed, err := sess.Timeline().SetWords(words)
	s.afterRegroup(ctx, sess, snap, changed, err, start)
	return err
}

// Policy returns the session's segmentation policy.
func (s *Service) Policy(id string) (caption.SegmentationPolicy, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return caption.SegmentationPolicy{}, err
	}
	return sess.Timeline().Snapshot().Policy, nil
}

// SetPolicy regroups the session's words under policy.
func (s *Service) SetPolicy(ctx context.Context, id string, policy caption.SegmentationPolicy) (*Summary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Lifecycle().State().IsTerminal() {
		return nil, session.ErrClosed
	}
	start := time.Now()
	snap, changed, err := sess.Timeline().SetPolicy(policy)
	s.afterRegroup(ctx, sess, snap, changed, err, start)
	if err != nil {
		return nil, err
	}
	return s.summary(sess), nil
}

func (s *Service) afterRegroup(ctx context.Context, sess *session.Session, snap *caption.Snapshot, changed bool, err error, start time.Time) {
	if err != nil {
		s.metrics.RecordSegmentation(caption.StatusInvalid.String(), 0, time.Since(start).Seconds())
		s.recordRejection(err)
		return
	}
	if !changed {
		return
	}
	status := caption.StatusOK
	if len(snap.Phrases) == 0 {
		status = caption.StatusEmpty
	}
	s.metrics.RecordSegmentation(status.String(), len(snap.Phrases), time.Since(start).Seconds())

	event := models.PhrasesUpdated{
		EventType:           models.EventPhrasesUpdated,
		SessionID:           sess.ID(),
		Timestamp:           s.now().UnixMilli(),
		Revision:            snap.Revision,
		MaxWordsPerPhrase:   snap.Policy.MaxWordsPerPhrase,
		SilenceGapThreshold: snap.Policy.SilenceGapThreshold,
		WordCount:           len(snap.Words),
		PhraseCount:         len(snap.Phrases),
	}
	if err := s.publisher.PublishPhrasesUpdated(ctx, event); err != nil {
		log.Error().Err(err).Str("sessionId", sess.ID()).Msg("Failed to publish phrases update")
	}
}

// Style returns the session's overlay style.
func (s *Service) Style(id string) (style.Config, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return style.Config{}, err
	}
	return sess.Style(), nil
}

// SetStyle replaces the session's overlay style.
func (s *Service) SetStyle(id string, c style.Config) (*Summary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetStyle(c); err != nil {
		s.metrics.RecordValidationError("style")
		return nil, err
	}
	return s.summary(sess), nil
}

// Phrases returns the session's phrases with display text.
func (s *Service) Phrases(id string) ([]PhraseView, uint64, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, 0, err
	}
	snap := sess.Timeline().Snapshot()
	sc := sess.Style()
	out := make([]PhraseView, len(snap.Phrases))
	for i, p := range snap.Phrases {
		out[i] = PhraseView{
			Index:   i,
			Start:   p.Start,
			End:     p.End,
			Text:    p.Text,
			Display: sc.ApplyCase(p.Text),
			Words:   p.Words,
		}
	}
	return out, snap.Revision, nil
}

// Active resolves the word and phrase active at t.
func (s *Service) Active(id string, t float64) (caption.Frame, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return caption.Frame{}, err
	}
	f := sess.Timeline().At(t)
	s.recordFrame(f)
	return f, nil
}

// Playback returns a frame source for one playback stream.
func (s *Service) Playback(id string) (*Playback, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPlaybackStart()
	return &Playback{player: caption.NewPlayer(sess.Timeline()), svc: s}, nil
}

// Playback resolves frames for one client stream. Not safe for concurrent use.
type Playback struct {
	player *caption.Player
	svc    *Service
	closed bool
}

// Close ends the stream.
func (p *Playback) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.svc.metrics.RecordPlaybackEnd()
}

// At resolves the frame at t.
func (p *Playback) At(t float64) caption.Frame {
	f := p.player.At(t)
	p.svc.recordFrame(f)
	return f
}

func (s *Service) recordFrame(f caption.Frame) {
	s.metrics.RecordLookup("word", f.Word != nil)
	s.metrics.RecordLookup("phrase", f.Phrase != nil)
}

// ExportSRT renders the session's phrases as an SRT document.
func (s *Service) ExportSRT(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	snap := sess.Timeline().Snapshot()
	doc, err := caption.ToSubtitleDocument(snap.Phrases)
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}
	s.exported(ctx, sess, snap, "srt", len(doc))
	return []byte(doc), nil
}

// ExportWords renders the session's words as indented JSON.
func (s *Service) ExportWords(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	snap := sess.Timeline().Snapshot()
	data, err := project.EncodeWords(snap.Words)
	if err != nil {
		return nil, err
	}
	s.exported(ctx, sess, snap, "words", len(data))
	return data, nil
}

// ExportProject renders words, policy and style as a project document.
func (s *Service) ExportProject(ctx context.Context, id string, f project.Format) ([]byte, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	snap := sess.Timeline().Snapshot()
	data, err := project.Encode(&project.Document{
		Words:  snap.Words,
		Policy: snap.Policy,
		Style:  sess.Style(),
		Debug:  sess.Debug(),
	}, f)
	if err != nil {
		return nil, err
	}
	s.exported(ctx, sess, snap, "project-"+string(f), len(data))
	return data, nil
}

// ImportProject replaces the session's words, policy and style with those
// of a project document. Nothing changes if the document is invalid.
func (s *Service) ImportProject(ctx context.Context, id string, data []byte, f project.Format) (*Summary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	doc, err := project.Decode(data, f)
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}
	if s.opts.Limits.MaxWords > 0 && len(doc.Words) > s.opts.Limits.MaxWords {
		s.metrics.RecordLimitExceeded("words")
		return nil, fmt.Errorf("%w: %d > %d", schema.ErrTooManyWords, len(doc.Words), s.opts.Limits.MaxWords)
	}
	if err := sess.Lifecycle().Load(); err != nil {
		return nil, err
	}

	start := time.Now()
	snap, err := sess.Timeline().Replace(doc.Words, doc.Policy)
	s.afterRegroup(ctx, sess, snap, err == nil, err, start)
	if err != nil {
		return nil, err
	}
	if err := sess.SetStyle(doc.Style); err != nil {
		return nil, err
	}
	if len(doc.Debug) > 0 {
		sess.SetDebug(doc.Debug)
	}
	return s.summary(sess), nil
}

func (s *Service) exported(ctx context.Context, sess *session.Session, snap *caption.Snapshot, format string, size int) {
	s.metrics.RecordExport(format, size)
	event := models.SubtitlesExported{
		EventType:   models.EventSubtitlesExported,
		SessionID:   sess.ID(),
		Timestamp:   s.now().UnixMilli(),
		Revision:    snap.Revision,
		Format:      format,
		PhraseCount: len(snap.Phrases),
		Bytes:       size,
	}
	if err := s.publisher.PublishSubtitlesExported(ctx, event); err != nil {
		log.Error().Err(err).Str("sessionId", sess.ID()).Msg("Failed to publish export")
	}
}

func (s *Service) recordRejection(err error) {
	var ve *caption.ValidationError
	switch {
	case errors.As(err, &ve):
		s.metrics.RecordValidationError(ve.Field)
	case errors.Is(err, schema.ErrTooManyWords):
		s.metrics.RecordLimitExceeded("words")
	}
}

func (s *Service) summary(sess *session.Session) *Summary {
	snap := sess.Timeline().Snapshot()
	sum := &Summary{
		ID:          sess.ID(),
		State:       sess.Lifecycle().State().String(),
		CreatedAt:   sess.CreatedAt(),
		Revision:    snap.Revision,
		WordCount:   len(snap.Words),
		PhraseCount: len(snap.Phrases),
		Policy:      snap.Policy,
		Style:       sess.Style(),
		VideoURI:    sess.VideoURI(),
	}
	if err := sess.Lifecycle().LastError(); err != nil {
		sum.LastError = err.Error()
	}
	return sum
}
