// Package config loads the calculator configuration: built-in defaults, an
// optional YAML file, an optional .env file and INTEGRALES_* environment
// variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/integrales/internal/expr"
	"github.com/R3E-Network/integrales/internal/integral"
)

// DefaultEnvFile is read when present in the working directory.
const DefaultEnvFile = ".env"

// Config is the complete configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Form    FormConfig    `yaml:"form"`
	Gateway GatewayConfig `yaml:"gateway"`
	Log     LogConfig     `yaml:"log"`
}

// ServiceConfig points at the evaluation service.
type ServiceConfig struct {
	URL          string        `yaml:"url" env:"INTEGRALES_SERVICE_URL"`
	Timeout      time.Duration `yaml:"timeout" env:"INTEGRALES_SERVICE_TIMEOUT"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"INTEGRALES_SERVICE_MAX_BODY_BYTES"`
}

// FormConfig controls form behaviour.
type FormConfig struct {
	FunctionPolicy string `yaml:"function_policy" env:"INTEGRALES_FUNCTION_POLICY"`
	DefaultArity   string `yaml:"default_arity" env:"INTEGRALES_DEFAULT_ARITY"`
}

// GatewayConfig configures the HTTP form gateway. AllowedOrigins is
// semicolon separated in the environment.
type GatewayConfig struct {
	Addr            string        `yaml:"addr" env:"INTEGRALES_ADDR"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"INTEGRALES_ALLOWED_ORIGINS"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" env:"INTEGRALES_RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" env:"INTEGRALES_RATE_LIMIT_BURST"`
	SessionTTL      time.Duration `yaml:"session_ttl" env:"INTEGRALES_SESSION_TTL"`
	SweepSchedule   string        `yaml:"sweep_schedule" env:"INTEGRALES_SWEEP_SCHEDULE"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"INTEGRALES_SHUTDOWN_TIMEOUT"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"INTEGRALES_LOG_LEVEL"`
	Format string `yaml:"format" env:"INTEGRALES_LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			URL:          integral.DefaultBaseURL,
			Timeout:      30 * time.Second,
			MaxBodyBytes: 8 << 20,
		},
		Form: FormConfig{
			FunctionPolicy: string(expr.PolicyReject),
			DefaultArity:   integral.Single.String(),
		},
		Gateway: GatewayConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			RateLimitRPS:    5,
			RateLimitBurst:  10,
			SessionTTL:      30 * time.Minute,
			SweepSchedule:   "@every 1m",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (optional), DefaultEnvFile (if present) and the environment.
func Load(path string) (*Config, error) {
	return LoadWithEnvFile(path, DefaultEnvFile)
}

// LoadWithEnvFile is Load with an explicit .env location. An empty envFile
// skips dotenv loading. Variables already in the environment win over the file.
func LoadWithEnvFile(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the components cannot use.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.Service.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service.url must be an http(s) URL, got %q", c.Service.URL)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("service.timeout must be positive")
	}
	if _, err := expr.ParsePolicy(c.Form.FunctionPolicy); err != nil {
		return fmt.Errorf("form.function_policy: %w", err)
	}
	if _, err := integral.ParseArity(c.Form.DefaultArity); err != nil {
		return fmt.Errorf("form.default_arity: %w", err)
	}
	if c.Gateway.RateLimitRPS <= 0 || c.Gateway.RateLimitBurst <= 0 {
		return fmt.Errorf("gateway rate limit must be positive")
	}
	if c.Gateway.SessionTTL <= 0 {
		return fmt.Errorf("gateway.session_ttl must be positive")
	}
	if _, err := cron.ParseStandard(c.Gateway.SweepSchedule); err != nil {
		return fmt.Errorf("gateway.sweep_schedule: %w", err)
	}
	return nil
}

// Policy returns the parsed function call policy.
func (c *Config) Policy() expr.Policy {
	p, err := expr.ParsePolicy(c.Form.FunctionPolicy)
	if err != nil {
		return expr.PolicyReject
	}
	return p
}

// Arity returns the parsed default arity.
func (c *Config) Arity() integral.Arity {
	a, err := integral.ParseArity(c.Form.DefaultArity)
	if err != nil {
		return integral.Single
	}
	return a
}
