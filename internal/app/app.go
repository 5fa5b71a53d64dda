package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"caption-timeline-service/internal/config"
	"caption-timeline-service/internal/events"
	"caption-timeline-service/internal/observability/logging"
	"caption-timeline-service/internal/observability/metrics"
	"caption-timeline-service/internal/service/captions"
	"caption-timeline-service/internal/service/stt"
	"caption-timeline-service/internal/service/stt/google"
	"caption-timeline-service/internal/service/stt/mock"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
	Metrics     *metrics.Metrics
	Publisher   *events.Publisher
	Captions    *captions.Service

	started atomic.Bool
	closers []func() error
}

// New constructs the Application from cfg: the transcriber selected by
// cfg.Transcriber.Provider, the Kafka publisher and the caption service.
// A nil m uses metrics.DefaultMetrics.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Application, error) {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	a := &Application{
		Cfg:     cfg,
		Metrics: m,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	transcriber, err := a.newTranscriber(ctx)
	if err != nil {
		return nil, err
	}

	a.Publisher = events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPhrases: cfg.Kafka.TopicPhrases,
		TopicExports: cfg.Kafka.TopicExports,
		Principal:    cfg.Kafka.Principal,
	}, m)
	a.closers = append(a.closers, a.Publisher.Close)

	a.Captions = captions.New(transcriber, a.Publisher, m, captions.Options{
		Policy:            cfg.Policy,
		Style:             captions.DefaultOptions().Style,
		Limits:            captions.Limits{MaxWords: cfg.Limits.MaxWords, MaxSessions: cfg.Limits.MaxSessions},
		LanguageCode:      cfg.Transcriber.LanguageCode,
		SampleRateHz:      cfg.Transcriber.SampleRateHz,
		Encoding:          cfg.Transcriber.Encoding,
		TranscribeTimeout: cfg.Transcriber.Timeout.Duration,
	})

	appLogger.Info().
		Str("sttProvider", transcriber.Name()).
		Bool("kafkaEnabled", a.Publisher.Enabled()).
		Msg("Caption timeline service application created")
	return a, nil
}

func (a *Application) newTranscriber(ctx context.Context) (stt.Transcriber, error) {
	switch a.Cfg.Transcriber.Provider {
	case "google":
		g, err := google.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("create google transcriber: %w", err)
		}
		a.closers = append(a.closers, g.Close)
		return g, nil
	case "mock", "":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown transcriber provider %q", a.Cfg.Transcriber.Provider)
	}
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	logging.Init(logging.Config{
		Level:      a.Cfg.Observability.LogLevel,
		Format:     a.Cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a.Logger = log.With().
		Str("service", "caption-timeline-service").
		Str("component", "application").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Env).
		Msg("Logger setup completed")
}

// Ready reports whether the service can take traffic.
func (a *Application) Ready() bool {
	return a.started.Load() && a.Captions.Ready()
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Caption timeline service starting")
	a.started.Store(true)

	return nil
}

// Shutdown releases the transcriber and publisher.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("Caption timeline service shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			shutdownLogger.Error().Err(err).Msg("Error during shutdown")
		}
	}
}
