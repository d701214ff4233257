// Package config loads the token issuer configuration from a YAML file.
// Values of the form ${VAR_NAME} are replaced with environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zarvd/token-issuer/internal/token"
)

var ErrInvalidConfig = errors.New("invalid config")

// maxValiditySeconds is the largest second count a time.Duration can hold.
const maxValiditySeconds = math.MaxInt64 / int64(time.Second)

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

type Config struct {
	JWT     JWTConfig     `yaml:"jwt"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type JWTConfig struct {
	Issuer                              string `yaml:"issuer"`
	PrivateKeyLocation                  string `yaml:"private_key_location"`
	KeyID                               string `yaml:"key_id"`
	TokenValidityInSeconds              int64  `yaml:"token_validity_in_seconds"`
	TokenValidityInSecondsForRememberMe int64  `yaml:"token_validity_in_seconds_for_remember_me"`
}

type ServerConfig struct {
	UnixSocket string `yaml:"unix_socket"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration after expanding ${VAR_NAME} references.
// Unset variables expand to the empty string.
func Parse(data []byte) (*Config, error) {
	expanded := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envVarRe.FindStringSubmatch(match)[1])
	})

	cfg := Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate reports the first missing or invalid field.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Issuer) == "" {
		return fmt.Errorf("%w: jwt.issuer is required", ErrInvalidConfig)
	}
	if c.JWT.PrivateKeyLocation == "" {
		return fmt.Errorf("%w: jwt.private_key_location is required", ErrInvalidConfig)
	}
	if c.JWT.TokenValidityInSeconds <= 0 || c.JWT.TokenValidityInSeconds > maxValiditySeconds {
		return fmt.Errorf("%w: jwt.token_validity_in_seconds must be between 1 and %d", ErrInvalidConfig, maxValiditySeconds)
	}
	if c.JWT.TokenValidityInSecondsForRememberMe <= 0 || c.JWT.TokenValidityInSecondsForRememberMe > maxValiditySeconds {
		return fmt.Errorf("%w: jwt.token_validity_in_seconds_for_remember_me must be between 1 and %d", ErrInvalidConfig, maxValiditySeconds)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// TokenConfig converts the second-based validities into a token.Config.
func (c *JWTConfig) TokenConfig() token.Config {
	return token.Config{
		Issuer:             c.Issuer,
		Validity:           time.Duration(c.TokenValidityInSeconds) * time.Second,
		RememberMeValidity: time.Duration(c.TokenValidityInSecondsForRememberMe) * time.Second,
	}
}

// MaxValidity is the longest lifetime any issued token can have.
func (c *JWTConfig) MaxValidity() time.Duration {
	cfg := c.TokenConfig()
	return max(cfg.Validity, cfg.RememberMeValidity)
}

func (c *LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	return level, nil
}

// NewLogger builds the process logger writing to stderr.
func (c *LoggingConfig) NewLogger() *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
