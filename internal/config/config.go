package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Normalization and crop mode values accepted by the pipeline configuration.
const (
	ModeNone      = "none"
	ModeNormalize = "normalize"
	ModeRescale   = "rescale"
	CropNone      = "none"
	CropRandom    = "random"
	CropCenter    = "center"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Tile pipeline configuration.
	DataSize         int
	SampleSize       int
	BatchSize        int
	ShardPattern     string
	ShardCompression string // "" or "gzip"
	NormalizeMode    string // none, normalize, rescale
	CropMode         string // none, random, center
	RandomSeed       int64  // 0 seeds from the clock

	// Reallocation configuration.
	ZoneTablePath string

	// Remote spread-model configuration.
	PredictorURL     string
	PredictorEnabled bool
	PredictorTimeout time.Duration

	// NASA FIRMS active-fire feed configuration.
	FirmsMapKey    string
	FirmsEnabled   bool
	FirmsTimeout   time.Duration
	FirmsCacheSize int

	// Kafka transfer-plan sink configuration.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	predictorTimeout, err := parseDuration("PREDICTOR_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	firmsTimeout, err := parseDuration("FIRMS_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	dataSize, err := parsePositiveInt("DATA_SIZE", 64)
	if err != nil {
		return nil, err
	}
	sampleSize, err := parsePositiveInt("SAMPLE_SIZE", 32)
	if err != nil {
		return nil, err
	}
	batchSize, err := parsePositiveInt("BATCH_SIZE", 32)
	if err != nil {
		return nil, err
	}
	firmsCacheSize, err := parsePositiveInt("FIRMS_CACHE_SIZE", 100)
	if err != nil {
		return nil, err
	}

	seed := int64(0)
	if s := os.Getenv("RANDOM_SEED"); s != "" {
		seed, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RANDOM_SEED: %w", err)
		}
	}

	predictorURL := os.Getenv("PREDICTOR_URL")
	firmsMapKey := os.Getenv("FIRMS_MAP_KEY")

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataSize:         dataSize,
		SampleSize:       sampleSize,
		BatchSize:        batchSize,
		ShardPattern:     envOrDefault("SHARD_PATTERN", "data/next_day_wildfire_spread_train*"),
		ShardCompression: os.Getenv("SHARD_COMPRESSION"),
		NormalizeMode:    envOrDefault("NORMALIZE_MODE", ModeNormalize),
		CropMode:         envOrDefault("CROP_MODE", CropRandom),
		RandomSeed:       seed,

		ZoneTablePath: envOrDefault("ZONE_TABLE_PATH", "data/resources_output.csv"),

		PredictorURL:     predictorURL,
		PredictorEnabled: envFlag("PREDICTOR_ENABLED", predictorURL != ""),
		PredictorTimeout: predictorTimeout,

		FirmsMapKey:    firmsMapKey,
		FirmsEnabled:   envFlag("FIRMS_ENABLED", firmsMapKey != ""),
		FirmsTimeout:   firmsTimeout,
		FirmsCacheSize: firmsCacheSize,

		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "transfer-plans"),
		KafkaEnabled:   envFlag("KAFKA_ENABLED", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.NormalizeMode {
	case ModeNone, ModeNormalize, ModeRescale:
	default:
		return fmt.Errorf("invalid NORMALIZE_MODE %q", c.NormalizeMode)
	}
	switch c.CropMode {
	case CropNone, CropRandom, CropCenter:
	default:
		return fmt.Errorf("invalid CROP_MODE %q", c.CropMode)
	}
	if c.ShardCompression != "" && c.ShardCompression != "gzip" {
		return fmt.Errorf("invalid SHARD_COMPRESSION %q", c.ShardCompression)
	}
	if c.SampleSize > c.DataSize {
		return fmt.Errorf("SAMPLE_SIZE %d exceeds DATA_SIZE %d", c.SampleSize, c.DataSize)
	}
	if c.ZoneTablePath == "" {
		return errors.New("ZONE_TABLE_PATH is required")
	}
	if c.PredictorEnabled && c.PredictorURL == "" {
		return errors.New("PREDICTOR_ENABLED is true but PREDICTOR_URL is not set")
	}
	if c.FirmsEnabled && c.FirmsMapKey == "" {
		return errors.New("FIRMS_ENABLED is true but FIRMS_MAP_KEY is not set")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFlag(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
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

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
