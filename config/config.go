// Package config reads the YAML configuration and applies environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"gptchat/clients/openai"
)

const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
	EnvModel   = "OPENAI_MODEL"
)

type Config struct {
	APIKey       string           `yaml:"api_key"`
	BaseURL      string           `yaml:"base_url"`
	Model        openai.ChatModel `yaml:"model"`
	Temperature  *float64         `yaml:"temperature"`
	SystemPrompt string           `yaml:"system_prompt"`
	Strict       bool             `yaml:"strict"`
	MaxErrorBody int64            `yaml:"max_error_body"`

	Listen   string `yaml:"listen"`
	DB       string `yaml:"db"`
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	opts := openai.NewDefaultOptions()
	return Config{
		BaseURL:      openai.DefaultBaseURL,
		Model:        opts.Model,
		SystemPrompt: opts.SystemPrompt,
		MaxErrorBody: opts.MaxErrorBody,
		Listen:       "localhost:8640",
		DB:           "",
		LogLevel:     "info",
	}
}

// Read loads path over Default, then applies the environment.
// A missing file at path is not an error, so that the environment alone can configure everything.
func Read(path string) (*Config, error) {
	conf := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("no config file, use defaults", "path", path)
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(file, &conf); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	conf.applyEnv(os.LookupEnv)
	return &conf, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		c.Model = v
	}
}

// Options converts c to client options, leaving the runtime dependencies to the caller.
func (c *Config) Options() openai.Options {
	opts := openai.NewDefaultOptions()
	if c.Model != "" {
		opts.Model = c.Model
	}
	opts.Temperature = c.Temperature
	if c.SystemPrompt != "" {
		opts.SystemPrompt = c.SystemPrompt
	}
	opts.Strict = c.Strict
	if c.MaxErrorBody > 0 {
		opts.MaxErrorBody = c.MaxErrorBody
	}
	return opts
}

func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}
