// Package config loads the optional timeline.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const Filename = "timeline.yaml"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Filters FiltersConfig `yaml:"filters"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type StorageConfig struct {
	PostsDir string `yaml:"posts_dir"`
}

type FiltersConfig struct {
	Workers     int `yaml:"workers"`
	PreviewSide int `yaml:"preview_side"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxUploadBytes: 20 << 20,
		},
		Storage: StorageConfig{
			PostsDir: "img",
		},
		Filters: FiltersConfig{
			PreviewSide: 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadOptional reads path over the defaults. A missing file is not an error.
func LoadOptional(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr is empty")
	case c.Server.MaxUploadBytes <= 0:
		return errors.New("server.max_upload_bytes must be positive")
	case c.Storage.PostsDir == "":
		return errors.New("storage.posts_dir is empty")
	case c.Filters.Workers < 0:
		return errors.New("filters.workers must not be negative")
	case c.Filters.PreviewSide < 0:
		return errors.New("filters.preview_side must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// NewLogger builds the stderr text logger for level.
func NewLogger(level string) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
