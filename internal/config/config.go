package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	App struct {
		Env      string `yaml:"env" validate:"oneof=development production test"`
		LogLevel string `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"app"`
	Server struct {
		Port           string   `yaml:"port" validate:"omitempty,numeric"`
		ReadTimeout    string   `yaml:"readTimeout"`
		WriteTimeout   string   `yaml:"writeTimeout"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" validate:"required,min=16"`
		TokenTTL  string `yaml:"tokenTtl"`
	} `yaml:"auth"`
	Trivia struct {
		BaseURL       string `yaml:"baseUrl" validate:"omitempty,url"`
		Timeout       string `yaml:"timeout"`
		CategoriesTTL string `yaml:"categoriesTtl"`
	} `yaml:"trivia"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Jobs struct {
		Enabled     bool `yaml:"enabled"`
		Concurrency int  `yaml:"concurrency" validate:"gte=0"`
	} `yaml:"jobs"`
	Quiz struct {
		QuestionCount int `yaml:"questionCount" validate:"gte=0,lte=50"`
		TimeLimit     int `yaml:"timeLimit" validate:"gte=0"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path, applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	ApplyEnv(&cfg)
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and addresses from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TRIVIA_BASE_URL"); v != "" {
		cfg.Trivia.BaseURL = v
	}
	if v := os.Getenv("JOBS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Jobs.Enabled = enabled
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = EnvDevelopment
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Trivia.BaseURL == "" {
		cfg.Trivia.BaseURL = "https://opentdb.com"
	}
	if cfg.Quiz.QuestionCount == 0 {
		cfg.Quiz.QuestionCount = 15
	}
	if cfg.Quiz.TimeLimit == 0 {
		cfg.Quiz.TimeLimit = 30 * 60
	}
	if cfg.Jobs.Concurrency == 0 {
		cfg.Jobs.Concurrency = 5
	}
}

// Validate checks the struct tags and reports every failing field at once.
func Validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validate config: %w", err)
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("%s failed %q (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config:\n- %s", strings.Join(messages, "\n- "))
}

// IsProduction reports whether internal error details must be hidden.
func (c Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
