package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddr      = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMongoDatabase   = "portfolio"
	defaultGeminiModel     = "gemini-2.5-flash-lite"
	defaultCacheTTL        = 24 * time.Hour
	defaultGenerateTimeout = 30 * time.Second
	defaultLogLevel        = "info"

	// Narrative cache backends.
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheMongo  = "mongo"

	// Content sources.
	ContentFile  = "file"
	ContentMongo = "mongo"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Redis     RedisConfig     `yaml:"redis"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Content   ContentConfig   `yaml:"content"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type GeminiConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type NarrativeConfig struct {
	// Cache selects the KV backend: memory, redis or mongo.
	Cache           string        `yaml:"cache"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
	// ProxyURL points the terminal client at a running site.
	ProxyURL string `yaml:"proxy_url"`
}

type ContentConfig struct {
	// Source selects where documents come from: file or mongo.
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads the optional YAML file at path, then applies environment
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns CONFIG_PATH or defaultPath.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	setString(&cfg.Mongo.URI, "MONGODB_URI")
	setString(&cfg.Mongo.Database, "MONGODB_DATABASE")

	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if db, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		cfg.Redis.DB = db
	}

	setString(&cfg.Narrative.Cache, "NARRATIVE_CACHE")
	setDuration(&cfg.Narrative.CacheTTL, "NARRATIVE_CACHE_TTL")
	setDuration(&cfg.Narrative.GenerateTimeout, "GENERATE_TIMEOUT")
	setString(&cfg.Narrative.ProxyURL, "GENERATE_PROXY_URL")

	setString(&cfg.Content.Source, "CONTENT_SOURCE")
	setString(&cfg.Content.Path, "CONTENT_PATH")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		cfg.Logging.Development = parseBool(v)
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = defaultMongoDatabase
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = defaultGeminiModel
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "narrative:"
	}
	if cfg.Narrative.Cache == "" {
		cfg.Narrative.Cache = CacheMemory
	}
	if cfg.Narrative.CacheTTL <= 0 {
		cfg.Narrative.CacheTTL = defaultCacheTTL
	}
	if cfg.Narrative.GenerateTimeout <= 0 {
		cfg.Narrative.GenerateTimeout = defaultGenerateTimeout
	}
	if cfg.Content.Source == "" {
		if cfg.Mongo.URI != "" {
			cfg.Content.Source = ContentMongo
		} else {
			cfg.Content.Source = ContentFile
		}
	}
	if cfg.Content.Path == "" {
		cfg.Content.Path = "content.yaml"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Narrative.Cache {
	case CacheMemory:
	case CacheRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis narrative cache")
		}
	case CacheMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required for the mongo narrative cache")
		}
	default:
		return fmt.Errorf("unknown narrative cache %q", c.Narrative.Cache)
	}

	switch c.Content.Source {
	case ContentFile:
	case ContentMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required for the mongo content source")
		}
	default:
		return fmt.Errorf("unknown content source %q", c.Content.Source)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = d
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
