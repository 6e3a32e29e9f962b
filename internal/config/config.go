// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Pipeline cadence and history retention.
	TickInterval     time.Duration
	HistoryRetention time.Duration

	// Forecast model tunables.
	SequenceLength  int
	TrainFloor      int
	RetrainStride   int
	ConfidenceSlope float64

	// Upstream weather feed. An empty API key means synthetic-only mode.
	WeatherAPIKey  string
	WeatherBaseURL string
	WeatherTimeout time.Duration
	WeatherLat     float64
	WeatherLon     float64
	WeatherEnabled bool
	SyntheticSeed  int64

	// Optional snapshot sinks; empty settings disable the sink.
	KafkaBrokers       []string
	KafkaSnapshotTopic string
	SQLitePath         string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	tickInterval, err := parseDuration("TICK_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	retention, err := parseDuration("HISTORY_RETENTION", "24h")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	lat, err := parseFloat("WEATHER_LAT", 41.3874)
	if err != nil {
		return nil, err
	}
	lon, err := parseFloat("WEATHER_LON", 2.1686)
	if err != nil {
		return nil, err
	}
	confidenceSlope, err := parseFloat("CONFIDENCE_SLOPE", 2.0)
	if err != nil {
		return nil, err
	}

	seqLen, err := parseInt("SEQUENCE_LENGTH", 10)
	if err != nil {
		return nil, err
	}
	trainFloor, err := parseInt("TRAIN_FLOOR", 50)
	if err != nil {
		return nil, err
	}
	retrainStride, err := parseInt("RETRAIN_STRIDE", 20)
	if err != nil {
		return nil, err
	}
	seed, err := parseInt("SYNTHETIC_SEED", 1)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("WEATHER_API_KEY")
	weatherEnabled := apiKey != ""
	if v := os.Getenv("WEATHER_ENABLED"); v != "" {
		weatherEnabled = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TickInterval:     tickInterval,
		HistoryRetention: retention,

		SequenceLength:  seqLen,
		TrainFloor:      trainFloor,
		RetrainStride:   retrainStride,
		ConfidenceSlope: confidenceSlope,

		WeatherAPIKey:  apiKey,
		WeatherBaseURL: os.Getenv("WEATHER_BASE_URL"),
		WeatherTimeout: weatherTimeout,
		WeatherLat:     lat,
		WeatherLon:     lon,
		WeatherEnabled: weatherEnabled,
		SyntheticSeed:  int64(seed),

		KafkaBrokers:       brokers,
		KafkaSnapshotTopic: envOrDefault("KAFKA_SNAPSHOT_TOPIC", "terrain-risk-snapshots"),
		SQLitePath:         os.Getenv("SQLITE_PATH"),
	}

	if cfg.WeatherEnabled && cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_ENABLED is true but WEATHER_API_KEY is not set")
	}
	if cfg.TickInterval < time.Second {
		return nil, errors.New("TICK_INTERVAL must be at least 1s")
	}
	if cfg.SequenceLength < 2 {
		return nil, errors.New("SEQUENCE_LENGTH must be at least 2")
	}
	if cfg.TrainFloor < 2*cfg.SequenceLength {
		return nil, fmt.Errorf("TRAIN_FLOOR must be at least 2*SEQUENCE_LENGTH (%d)", 2*cfg.SequenceLength)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_SNAPSHOT_TOPIC is empty")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the Kafka snapshot sink should be wired.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// SQLiteEnabled reports whether the SQLite snapshot sink should be wired.
func (c *Config) SQLiteEnabled() bool {
	return c.SQLitePath != ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}
