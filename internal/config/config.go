package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log struct {
		Level  slog.Level `yaml:"level" env:"LOG_LEVEL"`
		Format string     `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"log"`
	Server struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		Timeout  string `yaml:"timeout" env:"REDIS_TIMEOUT"`
		// Host and Port are the split form older .env files use.
		Host string `yaml:"-" env:"REDIS_HOST"`
		Port string `yaml:"-" env:"REDIS_PORT"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionsPath string `yaml:"questions_path" env:"QUESTIONS_PATH"`
		Namespace     string `yaml:"namespace" env:"QUIZ_NAMESPACE"`
		CacheTTL      string `yaml:"cache_ttl" env:"QUESTIONS_CACHE_TTL"`
	} `yaml:"quiz"`
	Telegram struct {
		Token string `yaml:"token" env:"TG_TOKEN"`
		Debug bool   `yaml:"debug" env:"TG_DEBUG"`
		// LegacyToken is read from BOT_TOKEN when TG_TOKEN is unset.
		LegacyToken string `yaml:"-" env:"BOT_TOKEN"`
	} `yaml:"telegram"`
	VK struct {
		Token string `yaml:"token" env:"VK_TOKEN"`
	} `yaml:"vk"`
}

// Load reads YAML config from path and overlays environment variables,
// including those from a .env file in the working directory. A missing
// YAML file is not an error; everything can come from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = cfg.Telegram.LegacyToken
	}
	if cfg.Redis.Addr == "" && (cfg.Redis.Host != "" || cfg.Redis.Port != "") {
		host, port := cfg.Redis.Host, cfg.Redis.Port
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "6379"
		}
		cfg.Redis.Addr = net.JoinHostPort(host, port)
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Quiz.QuestionsPath == "" {
		cfg.Quiz.QuestionsPath = "questions.json"
	}
	if cfg.Quiz.Namespace == "" {
		cfg.Quiz.Namespace = "quiz"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
