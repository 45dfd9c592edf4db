// Package config loads companion settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Persona      string
	PersonasFile string

	Store      string
	DataDir    string
	FileFormat string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string

	MemoryCategoryCap     int
	MemoryGlobalCap       int
	ConsolidationInterval time.Duration

	VoiceModulation bool
	RandSeed        int64

	CompletionsAPIURL  string
	CompletionsAPIKey  string
	CompletionsModel   string
	CompletionsTimeout time.Duration

	NatsURL           string
	NatsSubjectPrefix string

	LogLevel  string
	LogLevels string
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

type parser struct {
	err error
}

func (p *parser) int(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" || p.err != nil {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		p.err = errors.Wrapf(err, "env %s", key)
		return def
	}
	return v
}

func (p *parser) int64(key string, def int64) int64 {
	raw := getEnv(key, "")
	if raw == "" || p.err != nil {
		return def
	}
	v, err := cast.ToInt64E(raw)
	if err != nil {
		p.err = errors.Wrapf(err, "env %s", key)
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" || p.err != nil {
		return def
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		p.err = errors.Wrapf(err, "env %s", key)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" || p.err != nil {
		return def
	}
	v, err := cast.ToDurationE(raw)
	if err != nil {
		p.err = errors.Wrapf(err, "env %s", key)
		return def
	}
	return v
}

// LoadConfig reads envFiles (or ./.env when none are given) if present, then
// the environment. Variables already set in the environment win over files.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, errors.Wrap(err, "load env file")
	}

	p := &parser{}
	conf := &Config{
		Persona:      getEnv("COMPANION_PERSONA", ""),
		PersonasFile: getEnv("COMPANION_PERSONAS_FILE", ""),

		Store:      strings.ToLower(getEnv("COMPANION_STORE", StoreFile)),
		DataDir:    getEnv("COMPANION_DATA_DIR", "./output/sessions"),
		FileFormat: strings.ToLower(getEnv("COMPANION_FILE_FORMAT", "json")),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       p.int("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "./output/sqlite/companion.db"),

		MemoryCategoryCap:     p.int("MEMORY_CATEGORY_CAP", 20),
		MemoryGlobalCap:       p.int("MEMORY_GLOBAL_CAP", 100),
		ConsolidationInterval: p.duration("CONSOLIDATION_INTERVAL", 5*time.Minute),

		VoiceModulation: p.bool("VOICE_MODULATION", false),
		RandSeed:        p.int64("RAND_SEED", 0),

		CompletionsAPIURL:  getEnv("COMPLETIONS_API_URL", ""),
		CompletionsAPIKey:  getEnv("COMPLETIONS_API_KEY", ""),
		CompletionsModel:   getEnv("COMPLETIONS_MODEL", "gpt-4.1-mini"),
		CompletionsTimeout: p.duration("COMPLETIONS_TIMEOUT", 30*time.Second),

		NatsURL:           getEnv("NATS_URL", ""),
		NatsSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "companion"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogLevels: getEnv("LOG_LEVELS", ""),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return errors.Errorf("COMPANION_STORE %q: want memory, file, redis or sqlite", c.Store)
	}
	if c.FileFormat != "json" && c.FileFormat != "yaml" {
		return errors.Errorf("COMPANION_FILE_FORMAT %q: want json or yaml", c.FileFormat)
	}
	if c.MemoryCategoryCap <= 0 || c.MemoryGlobalCap <= 0 {
		return errors.Errorf("memory caps must be positive (category %d, global %d)", c.MemoryCategoryCap, c.MemoryGlobalCap)
	}
	if c.ConsolidationInterval <= 0 {
		return errors.Errorf("CONSOLIDATION_INTERVAL must be positive, got %s", c.ConsolidationInterval)
	}
	return nil
}

// CompletionsEnabled reports whether a completion endpoint is configured.
func (c *Config) CompletionsEnabled() bool {
	return c.CompletionsAPIURL != ""
}
