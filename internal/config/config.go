package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"caption-timeline-service/internal/caption"
)

// Config holds service configuration. Values come from an optional TOML
// file and are then overridden by environment variables.
type Config struct {
	Service       ServiceConfig              `toml:"service"`
	Transcriber   TranscriberConfig          `toml:"transcriber"`
	Policy        caption.SegmentationPolicy `toml:"policy"`
	Limits        LimitsConfig               `toml:"limits"`
	Kafka         KafkaConfig                `toml:"kafka"`
	Observability ObservabilityConfig        `toml:"observability"`
}

type ServiceConfig struct {
	Principal   string `toml:"principal"`
	HTTPPort    string `toml:"http_port"`
	GRPCPort    string `toml:"grpc_port"`
	MetricsPort string `toml:"metrics_port"`
	Env         string `toml:"env"`
}

type TranscriberConfig struct {
	Provider     string   `toml:"provider"` // mock, google
	LanguageCode string   `toml:"language_code"`
	SampleRateHz int      `toml:"sample_rate_hz"`
	Encoding     string   `toml:"encoding"`
	Timeout      Duration `toml:"timeout"`
}

// LimitsConfig bounds per-session work. Zero means unlimited.
type LimitsConfig struct {
	MaxWords    int `toml:"max_words"`
	MaxSessions int `toml:"max_sessions"`
}

type KafkaConfig struct {
	Enabled      bool     `toml:"enabled"`
	Brokers      []string `toml:"brokers"`
	TopicPhrases string   `toml:"topic_phrases"`
	TopicExports string   `toml:"topic_exports"`
	Principal    string   `toml:"principal"`
}

type ObservabilityConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // json, console
}

// Duration is a time.Duration written as "30s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Principal:   "svc-caption-timeline",
			HTTPPort:    "8080",
			GRPCPort:    "50051",
			MetricsPort: "9090",
			Env:         "dev",
		},
		Transcriber: TranscriberConfig{
			Provider:     "mock",
			LanguageCode: "en-US",
			SampleRateHz: 16000,
			Encoding:     "LINEAR16",
			Timeout:      Duration{5 * time.Minute},
		},
		Policy: caption.DefaultPolicy(),
		Limits: LimitsConfig{
			MaxWords:    50000,
			MaxSessions: 1000,
		},
		Kafka: KafkaConfig{
			TopicPhrases: "caption.phrases",
			TopicExports: "caption.exports",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load returns defaults overridden by environment variables.
func Load() *Config {
	cfg := Default()
	applyEnv(&cfg)
	return &cfg
}

// LoadFile reads the TOML file at path over the defaults, then applies
// environment overrides. An empty path falls back to CAPTION_CONFIG_FILE;
// if neither is set it behaves like Load.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CAPTION_CONFIG_FILE")
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	switch c.Transcriber.Provider {
	case "mock", "google":
	default:
		return fmt.Errorf("transcriber: unknown provider %q", c.Transcriber.Provider)
	}
	if c.Transcriber.Timeout.Duration <= 0 {
		return fmt.Errorf("transcriber: timeout must be positive")
	}
	if c.Limits.MaxWords < 0 || c.Limits.MaxSessions < 0 {
		return fmt.Errorf("limits: must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", cfg.Service.Principal)
	cfg.Service.HTTPPort = envOrDefault("HTTP_PORT", cfg.Service.HTTPPort)
	cfg.Service.GRPCPort = envOrDefault("GRPC_PORT", cfg.Service.GRPCPort)
	cfg.Service.MetricsPort = envOrDefault("METRICS_PORT", cfg.Service.MetricsPort)
	cfg.Service.Env = envOrDefault("ENV", cfg.Service.Env)

	cfg.Transcriber.Provider = envOrDefault("STT_PROVIDER", cfg.Transcriber.Provider)
	cfg.Transcriber.LanguageCode = envOrDefault("STT_LANGUAGE_CODE", cfg.Transcriber.LanguageCode)
	cfg.Transcriber.SampleRateHz = envOrDefaultInt("STT_SAMPLE_RATE_HZ", cfg.Transcriber.SampleRateHz)
	cfg.Transcriber.Encoding = envOrDefault("STT_AUDIO_ENCODING", cfg.Transcriber.Encoding)
	cfg.Transcriber.Timeout.Duration = envOrDefaultDuration("STT_TIMEOUT", cfg.Transcriber.Timeout.Duration)

	cfg.Policy.MaxWordsPerPhrase = envOrDefaultInt("CAPTION_MAX_WORDS_PER_PHRASE", cfg.Policy.MaxWordsPerPhrase)
	cfg.Policy.SilenceGapThreshold = envOrDefaultFloat("CAPTION_SILENCE_GAP_THRESHOLD", cfg.Policy.SilenceGapThreshold)

	cfg.Limits.MaxWords = envOrDefaultInt("CAPTION_MAX_WORDS", cfg.Limits.MaxWords)
	cfg.Limits.MaxSessions = envOrDefaultInt("CAPTION_MAX_SESSIONS", cfg.Limits.MaxSessions)

	cfg.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	cfg.Kafka.Brokers = envOrDefaultList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.TopicPhrases = envOrDefault("KAFKA_TOPIC_PHRASES", cfg.Kafka.TopicPhrases)
	cfg.Kafka.TopicExports = envOrDefault("KAFKA_TOPIC_EXPORTS", cfg.Kafka.TopicExports)
	cfg.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", cfg.Kafka.Principal)
	if cfg.Kafka.Principal == "" {
		cfg.Kafka.Principal = cfg.Service.Principal
	}

	cfg.Observability.LogLevel = envOrDefault("LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.LogFormat = envOrDefault("LOG_FORMAT", cfg.Observability.LogFormat)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
