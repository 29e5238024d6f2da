package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/glissade/rcol/pkg/bundle"
	"github.com/spf13/cobra"
)

// config is the tool-wide configuration. Every field has a usable default,
// so a missing config file is not an error.
type config struct {
	Logging loggingConfig `toml:"logging"`
	Catalog catalogConfig `toml:"catalog"`
	Bundle  bundleConfig  `toml:"bundle"`
	Signing signingConfig `toml:"signing"`
}

type loggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type catalogConfig struct {
	Path string `toml:"path"`
}

type bundleConfig struct {
	Compression string `toml:"compression"`
}

type signingConfig struct {
	Key string `toml:"key"`
}

func defaultConfig() config {
	return config{
		Logging: loggingConfig{Level: "info", Format: "text"},
		Catalog: catalogConfig{Path: "~/.local/share/rcol/catalog.db"},
		Bundle:  bundleConfig{Compression: "zstd"},
	}
}

// loadConfig reads the config file at path, or the default location when path
// is empty. Absent files yield the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	resolved, explicit := path, path != ""
	if !explicit {
		resolved = "~/.config/rcol/config.toml"
	}
	resolved, err := expandUserPath(resolved)
	if err != nil {
		return cfg, err
	}

	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, cfg.validate()
		}
		return cfg, fmt.Errorf("stat config: %w", err)
	}
	if _, err := toml.DecodeFile(resolved, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", resolved, err)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q (want text or json)", c.Logging.Format)
	}
	if _, err := bundle.ParseCompression(c.Bundle.Compression); err != nil {
		return err
	}
	if c.Catalog.Path == "" {
		return errors.New("catalog path must not be empty")
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// newLogger builds the slog logger the long-running commands use. Output goes
// to stderr so command output stays pipeable.
func newLogger(cfg config) *slog.Logger {
	level, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// configFromCmd loads the configuration named by the root --config flag. The
// flag lives on the root command, so a subcommand executed on its own (as the
// tests do) falls back to the default location.
func configFromCmd(cmd *cobra.Command) (config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path = ""
	}
	return loadConfig(path)
}

func expandUserPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}
