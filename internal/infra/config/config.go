package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bmrengine/internal/app/features"
	"bmrengine/internal/domain/bmr"
)

const (
	CacheOff    = "off"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config aggregates application configuration values loaded from the
// environment, an optional .env file and an optional YAML features file.
type Config struct {
	Env                string
	HTTPAddr           string
	DefaultMethod      string
	CacheMode          string
	CacheTTL           time.Duration
	Redis              RedisConfig
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	OutboxLimit        int
	RetryBackoff       []time.Duration
	MetricsEnabled     bool
	Flags              []features.Flag
	Experiments        []features.Experiment
}

type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// Load parses configuration from the current environment. Values from
// BMR_CONFIG_FILE seed the defaults; environment variables win.
func Load() (Config, error) {
	if err := godotenv.Load(getEnv("DOTENV_PATH", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	file := fileConfig{}
	if path := os.Getenv("BMR_CONFIG_FILE"); path != "" {
		loaded, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		file = loaded
	}

	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DefaultMethod:    getEnv("BMR_DEFAULT_METHOD", orDefault(file.DefaultMethod, string(bmr.MethodMifflinStJeor))),
		CacheMode:        strings.ToLower(getEnv("CACHE_MODE", orDefault(file.Cache.Mode, CacheMemory))),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "bmrengine"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		Redis: RedisConfig{
			Address:   getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "bmrengine:"),
		},
		Flags:       file.flags(),
		Experiments: file.experiments(),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.CacheTTL, err = parseDurationEnv("CACHE_TTL", orDuration(file.Cache.TTL, time.Hour)); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.OutboxLimit, err = parseIntEnv("OUTBOX_LIMIT", 10000); err != nil {
		return Config{}, err
	}
	if cfg.Redis.DB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.Redis.PoolSize, err = parseIntEnv("REDIS_POOL_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.MetricsEnabled, err = parseBoolEnv("METRICS_ENABLED", true); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	registry := bmr.NewRegistry()
	if _, _, err := registry.Lookup(c.DefaultMethod); err != nil {
		return fmt.Errorf("BMR_DEFAULT_METHOD: %w", err)
	}
	switch c.CacheMode {
	case CacheOff, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("invalid CACHE_MODE %q", c.CacheMode)
	}
	for _, f := range c.Flags {
		if f.Rollout < 0 || f.Rollout > 1 {
			return fmt.Errorf("flag %s: rollout_percentage must be within [0,100]", f.Name)
		}
		for _, m := range f.Methods {
			if _, _, err := registry.Lookup(m); err != nil {
				return fmt.Errorf("flag %s: %w", f.Name, err)
			}
		}
	}
	for _, e := range c.Experiments {
		for _, v := range e.Variants {
			if v.Weight < 0 {
				return fmt.Errorf("experiment %s: negative weight for %s", e.Name, v.Method)
			}
			if _, _, err := registry.Lookup(v.Method); err != nil {
				return fmt.Errorf("experiment %s: %w", e.Name, err)
			}
		}
	}
	return nil
}

// UseMongo reports whether history and outbox should be persisted in MongoDB.
func (c Config) UseMongo() bool {
	return c.MongoURI != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orDuration(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
