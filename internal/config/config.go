package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Pair store backends.
const (
	PairStoreMemory   = "memory"
	PairStorePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Split-broadcast pairing.
	PairWindow        time.Duration
	PairStore         string
	PairStoreCapacity int
	PairHistory       int
	DatabaseURL       string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	pairWindow, err := time.ParseDuration(sharedcfg.EnvOrDefault("PAIR_WINDOW", "15m"))
	if err != nil || pairWindow <= 0 {
		return nil, errors.New("invalid PAIR_WINDOW")
	}

	capacity, err := parsePositiveInt("PAIR_STORE_CAPACITY", 1000)
	if err != nil {
		return nil, err
	}
	history, err := parsePositiveInt("PAIR_HISTORY", 4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-atis-advisories"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "runway-configurations"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "runway-config-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		PairWindow:        pairWindow,
		PairStore:         sharedcfg.EnvOrDefault("PAIR_STORE", PairStoreMemory),
		PairStoreCapacity: capacity,
		PairHistory:       history,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	switch cfg.PairStore {
	case PairStoreMemory:
	case PairStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("PAIR_STORE is postgres but DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("invalid PAIR_STORE %q: want %s or %s", cfg.PairStore, PairStoreMemory, PairStorePostgres)
	}

	return cfg, nil
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
