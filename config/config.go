// Package config carrega a configuração do gateway: defaults, arquivo YAML
// opcional e, por cima de tudo, variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	AlgorithmFixedWindow = "fixed_window"
	AlgorithmTokenBucket = "token_bucket"
)

type Config struct {
	Server struct {
		ListenAddr    string `yaml:"listen_addr"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Rate struct {
		Enabled        bool          `yaml:"enabled"`
		Algorithm      string        `yaml:"algorithm"`
		Limit          int           `yaml:"limit"`
		Window         time.Duration `yaml:"window"`
		RPS            float64       `yaml:"rps"`
		Burst          int           `yaml:"burst"`
		PruneThreshold int           `yaml:"prune_threshold"`
		RetryAfter     time.Duration `yaml:"retry_after"`

		// RedisAddr vazio mantém o contador em memória (um processo só).
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisPrefix   string `yaml:"redis_prefix"`

		KeyHeader         string `yaml:"key_header"`
		TrustProxyHeaders bool   `yaml:"trust_proxy_headers"`
		AddHeaders        bool   `yaml:"add_headers"`
	} `yaml:"rate"`

	Stats struct {
		Enabled bool `yaml:"enabled"`
		// sem RedisAddr as estatísticas ficam em memória
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		Prefix        string        `yaml:"prefix"`
		TTL           time.Duration `yaml:"ttl"`
		Bucket        string        `yaml:"bucket"`
		TrackKeys     bool          `yaml:"track_keys"`

		// DebugAddr serve /debug/ratelimit/stats num listener separado do
		// público (ex.: 127.0.0.1:9091); vazio desliga.
		DebugAddr string `yaml:"debug_addr"`
	} `yaml:"stats"`

	Concurrency struct {
		Max     int           `yaml:"max"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"concurrency"`

	Events struct {
		NatsURL string `yaml:"nats_url"`
		Subject string `yaml:"subject"`
	} `yaml:"events"`

	Quota struct {
		MonthlyWindow time.Duration `yaml:"monthly_window"`
	} `yaml:"quota"`
}

func Default() Config {
	var cfg Config
	cfg.Server.ListenAddr = ":8080"
	cfg.Server.PublicBaseURL = "http://localhost:8080"

	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "gateway.db"

	cfg.Rate.Enabled = true
	cfg.Rate.Algorithm = AlgorithmFixedWindow
	cfg.Rate.Limit = 10
	cfg.Rate.Window = time.Second
	cfg.Rate.RPS = 10
	cfg.Rate.Burst = 20
	cfg.Rate.PruneThreshold = 1000
	cfg.Rate.RetryAfter = time.Second
	cfg.Rate.RedisPrefix = "ratelimit:window"
	// o gateway roda atrás de proxy/CDN; sem proxy, desligue para não aceitar IP forjado
	cfg.Rate.TrustProxyHeaders = true

	cfg.Stats.Prefix = "ratelimit:stats"
	cfg.Stats.TTL = 24 * time.Hour
	cfg.Stats.Bucket = "minute"

	cfg.Concurrency.Max = 100

	cfg.Events.Subject = "audio.asset.played"

	cfg.Quota.MonthlyWindow = 30 * 24 * time.Hour
	return cfg
}

// Load monta a configuração. path vazio pula o arquivo.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.ListenAddr = getenvDefault("LISTEN_ADDR", cfg.Server.ListenAddr)
	cfg.Server.PublicBaseURL = getenvDefault("PUBLIC_BASE_URL", cfg.Server.PublicBaseURL)

	cfg.Database.Driver = getenvDefault("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getenvDefault("DB_DSN", cfg.Database.DSN)

	r := &cfg.Rate
	r.Enabled = getenvBoolDefault("RATE_ENABLED", r.Enabled)
	r.Algorithm = strings.ToLower(getenvDefault("RATE_ALGORITHM", r.Algorithm))
	r.Limit = getenvIntDefault("RATE_LIMIT", r.Limit)
	r.Window = getenvDurationDefault("RATE_WINDOW", r.Window)
	r.RPS = getenvFloatDefault("RATE_RPS", r.RPS)
	// IMPORTANTE: o "burst" permite uma rajada inicial de requisições.
	// Com RPS muito baixo (ex: 0.02) e burst não informado, usa 1 para o
	// limite ficar visível já nas primeiras requisições.
	if burst, ok := getenvInt("RATE_BURST"); ok {
		r.Burst = burst
	} else if getenvIsSet("RATE_RPS") && r.RPS > 0 && r.RPS < 1 {
		r.Burst = 1
	}
	r.PruneThreshold = getenvIntDefault("RATE_PRUNE_THRESHOLD", r.PruneThreshold)
	r.RetryAfter = getenvDurationDefault("RETRY_AFTER", r.RetryAfter)
	r.RedisAddr = getenvDefault("RATE_REDIS_ADDR", r.RedisAddr)
	r.RedisPassword = getenvDefault("RATE_REDIS_PASSWORD", r.RedisPassword)
	r.RedisDB = getenvIntDefault("RATE_REDIS_DB", r.RedisDB)
	r.RedisPrefix = getenvDefault("RATE_REDIS_PREFIX", r.RedisPrefix)
	r.KeyHeader = getenvDefault("RATE_KEY_HEADER", r.KeyHeader)
	r.TrustProxyHeaders = getenvBoolDefault("TRUST_PROXY_HEADERS", r.TrustProxyHeaders)
	r.AddHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", r.AddHeaders)

	s := &cfg.Stats
	s.Enabled = getenvBoolDefault("RATE_STATS_ENABLED", s.Enabled)
	s.RedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", s.RedisAddr)
	s.RedisPassword = getenvDefault("RATE_STATS_REDIS_PASSWORD", s.RedisPassword)
	s.RedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", s.RedisDB)
	s.Prefix = getenvDefault("RATE_STATS_PREFIX", s.Prefix)
	s.TTL = getenvDurationDefault("RATE_STATS_TTL", s.TTL)
	s.Bucket = getenvDefault("RATE_STATS_BUCKET", s.Bucket)
	s.TrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", s.TrackKeys)
	s.DebugAddr = getenvDefault("RATE_STATS_DEBUG_ADDR", s.DebugAddr)

	cfg.Concurrency.Max = getenvIntDefault("CONCURRENCY_MAX", cfg.Concurrency.Max)
	cfg.Concurrency.Timeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", cfg.Concurrency.Timeout)

	cfg.Events.NatsURL = getenvDefault("EVENTS_NATS_URL", cfg.Events.NatsURL)
	cfg.Events.Subject = getenvDefault("EVENTS_SUBJECT", cfg.Events.Subject)

	cfg.Quota.MonthlyWindow = getenvDurationDefault("MONTHLY_WINDOW", cfg.Quota.MonthlyWindow)
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported (sqlite, postgres)", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("DB_DSN is required")
	}

	if u, err := url.Parse(c.Server.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PUBLIC_BASE_URL %q must be an absolute URL", c.Server.PublicBaseURL)
	}

	if c.Rate.Enabled {
		switch c.Rate.Algorithm {
		case AlgorithmFixedWindow:
			if c.Rate.Limit <= 0 {
				return errors.New("RATE_LIMIT must be > 0")
			}
			if c.Rate.Window <= 0 {
				return errors.New("RATE_WINDOW must be > 0")
			}
		case AlgorithmTokenBucket:
			if c.Rate.RPS <= 0 {
				return errors.New("RATE_RPS must be > 0")
			}
			if c.Rate.Burst <= 0 {
				return errors.New("RATE_BURST must be > 0")
			}
		default:
			return fmt.Errorf("RATE_ALGORITHM %q is not supported (%s, %s)", c.Rate.Algorithm, AlgorithmFixedWindow, AlgorithmTokenBucket)
		}
	}

	if c.Stats.DebugAddr != "" && c.Stats.DebugAddr == c.Server.ListenAddr {
		return errors.New("RATE_STATS_DEBUG_ADDR must differ from LISTEN_ADDR")
	}
	if c.Concurrency.Max < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.Quota.MonthlyWindow <= 0 {
		return errors.New("MONTHLY_WINDOW must be > 0")
	}
	if c.Events.NatsURL != "" && strings.TrimSpace(c.Events.Subject) == "" {
		return errors.New("EVENTS_SUBJECT is required when EVENTS_NATS_URL is set")
	}
	return nil
}
