package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
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

	// AnalysisConfigPath is a YAML analysis policy; empty uses the defaults.
	AnalysisConfigPath string
	// AnalysisConcurrency bounds simulations analysed at once within a batch.
	AnalysisConcurrency int

	// Remote comfort model. Empty URL computes SET in-process.
	ComfortAPIURL      string
	ComfortAPITimeout  time.Duration
	ComfortCacheSize   int
	ComfortLimitInputs bool

	// Claim-check object store. Empty endpoint disables matrix_ref payloads.
	ObjectStoreEndpoint  string
	ObjectStoreBucket    string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreUseSSL    bool
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

	analysisConcurrency, err := parsePositiveInt("ANALYSIS_CONCURRENCY", 2)
	if err != nil {
		return nil, err
	}

	comfortTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("COMFORT_API_TIMEOUT", "30s"))
	if err != nil || comfortTimeout <= 0 {
		return nil, errors.New("invalid COMFORT_API_TIMEOUT")
	}

	comfortCacheSize, err := parsePositiveInt("COMFORT_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	limitInputs, err := parseBool("COMFORT_LIMIT_INPUTS", false)
	if err != nil {
		return nil, err
	}

	useSSL, err := parseBool("OBJECT_STORE_USE_SSL", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "simulation-results"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "thermal-risk-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "thermal-risk-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		AnalysisConfigPath:  os.Getenv("ANALYSIS_CONFIG_PATH"),
		AnalysisConcurrency: analysisConcurrency,

		ComfortAPIURL:      os.Getenv("COMFORT_API_URL"),
		ComfortAPITimeout:  comfortTimeout,
		ComfortCacheSize:   comfortCacheSize,
		ComfortLimitInputs: limitInputs,

		ObjectStoreEndpoint:  os.Getenv("OBJECT_STORE_ENDPOINT"),
		ObjectStoreBucket:    sharedcfg.EnvOrDefault("OBJECT_STORE_BUCKET", "simulations"),
		ObjectStoreAccessKey: os.Getenv("OBJECT_STORE_ACCESS_KEY"),
		ObjectStoreSecretKey: os.Getenv("OBJECT_STORE_SECRET_KEY"),
		ObjectStoreUseSSL:    useSSL,
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
	if cfg.ComfortAPIURL != "" {
		if u, err := url.Parse(cfg.ComfortAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errors.New("invalid COMFORT_API_URL: must be an absolute URL")
		}
	}
	if cfg.ObjectStoreEnabled() && (cfg.ObjectStoreAccessKey == "" || cfg.ObjectStoreSecretKey == "") {
		return nil, errors.New("OBJECT_STORE_ENDPOINT is set but OBJECT_STORE_ACCESS_KEY or OBJECT_STORE_SECRET_KEY is not")
	}

	return cfg, nil
}

// RemoteComfortModel reports whether SET is delegated to a remote service.
func (c *Config) RemoteComfortModel() bool { return c.ComfortAPIURL != "" }

// ObjectStoreEnabled reports whether claim-check payloads can be resolved.
func (c *Config) ObjectStoreEnabled() bool { return c.ObjectStoreEndpoint != "" }

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("invalid " + key + ": must be a positive integer")
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New("invalid " + key + ": must be true or false")
	}
	return b, nil
}
