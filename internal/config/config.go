// Package config loads realflash settings from, in increasing priority, flag
// defaults, a YAML file, REALFLASH_* environment variables and explicitly set
// command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/realflash/internal/streak"
)

// EnvPrefix marks the environment variables read into the config.
const EnvPrefix = "REALFLASH_"

// Config holds all application configuration.
type Config struct {
	ConfigFile      string   `koanf:"config"`
	DB              string   `koanf:"db" validate:"required"`
	Listen          string   `koanf:"listen" validate:"required,hostname_port"`
	LogLevel        string   `koanf:"log-level" validate:"required,oneof=debug info warn error"`
	LogFormat       string   `koanf:"log-format" validate:"required,oneof=text json"`
	SourcesDir      string   `koanf:"sources-dir" validate:"required"`
	StreakThreshold int      `koanf:"streak-threshold" validate:"gte=1"`
	Sources         []string `koanf:"source" validate:"dive,required"`
}

// NewFlagSet declares every setting as a flag, with its default.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file")
	fs.String("db", "realflash.db", "Path to the SQLite database file")
	fs.String("listen", "localhost:8080", "Address the HTTP API listens on")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.String("log-format", "text", "Log format: text or json")
	fs.String("sources-dir", "repos", "Directory git sources are checked out into")
	fs.Int("streak-threshold", streak.DefaultThreshold, "Cards a day needs for the streak to count it")
	fs.StringSlice("source", nil, "Local directory or git URL holding *.cards files (repeatable)")
	return fs
}

// Load parses args against fs, then layers the config file, the environment
// and the flags. fs must come from NewFlagSet. The remaining positional
// arguments are returned alongside the config.
func Load(fs *pflag.FlagSet, args []string) (*Config, []string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, nil, fmt.Errorf("error loading environment: %w", err)
	}

	// Unchanged flags only fill keys no other source has set.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, nil, fmt.Errorf("error loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.ConfigFile = path
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, fs.Args(), nil
}

// envKey maps REALFLASH_LOG_LEVEL to log-level.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return fmt.Errorf("invalid config: %w", err)
}

// NewLogger builds the slog logger described by the config.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
