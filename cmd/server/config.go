package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type config struct {
	Port           string        `yaml:"port"`
	BackendURL     string        `yaml:"backendURL"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	LogDir         string        `yaml:"logDir"`
	LogLevel       string        `yaml:"logLevel"`
	DefaultLocale  string        `yaml:"defaultLocale"`
}

func loadConfig(path string) (config, error) {
	cfgFile, err := os.Open(path)
	if err != nil {
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}
	defer cfgFile.Close()

	cfg := config{}
	if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}

	if url := os.Getenv("TRADECOACH_BACKEND_URL"); url != "" {
		cfg.BackendURL = url
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.BackendURL == "" {
		return config{}, fmt.Errorf("backendURL is required")
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en"
	}

	return cfg, nil
}

func (c config) logLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
