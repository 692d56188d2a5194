// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

// Package config loads and validates the identity service configuration.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/nativetranslate/identity/internal/auth"
	"github.com/nativetranslate/identity/internal/mail"
)

// Config is the root configuration for the identity service.
type Config struct {
	Server   Server      `koanf:"server"`
	Database Database    `koanf:"database"`
	Log      Log         `koanf:"log"`
	Auth     Auth        `koanf:"auth"`
	Reset    Reset       `koanf:"reset"`
	Mail     mail.Config `koanf:"mail"`
}

// Server configures the HTTP listeners.
type Server struct {
	Addr        string `koanf:"addr"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// Database configures the PostgreSQL connection.
type Database struct {
	URL string `koanf:"url"`
}

// Log configures structured logging.
type Log struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Auth configures session tokens and the invite gate.
type Auth struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTTL      time.Duration `koanf:"session_ttl"`
	InviteSingleUse bool          `koanf:"invite_single_use"`
}

// Reset configures the password reset flow.
type Reset struct {
	TokenLength   int           `koanf:"token_length"`
	TokenAlphabet string        `koanf:"token_alphabet"`
	TokenTTL      time.Duration `koanf:"token_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	URL           string        `koanf:"url"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:        ":8080",
			MetricsAddr: "127.0.0.1:9100",
		},
		Log: Log{
			Format: "json",
			Level:  "info",
		},
		Auth: Auth{
			SessionTTL: auth.DefaultSessionTTL,
		},
		Reset: Reset{
			TokenLength:   auth.DefaultResetTokenLength,
			TokenAlphabet: auth.DefaultResetTokenAlphabet,
			TokenTTL:      auth.DefaultResetTokenTTL,
			SweepInterval: auth.DefaultSweepInterval,
			URL:           "http://localhost:5173/reset-password",
		},
		Mail: mail.Config{
			Provider: "smtp",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// command-line flags, in ascending priority. DATABASE_URL and JWT_SECRET
// environment variables fill their fields when the file and flags leave
// them empty.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "merge flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "unmarshal").
			Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("auth.jwt_secret or JWT_SECRET is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.Reset.TokenLength < 6 {
		return oops.Code("CONFIG_INVALID").Errorf("reset.token_length must be at least 6, got %d", c.Reset.TokenLength)
	}
	return nil
}
