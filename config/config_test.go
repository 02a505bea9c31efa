package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gptchat/clients/openai"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gptchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRead(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvModel, "")
	path := writeFile(t, `
base_url: http://localhost:11434/v1
model: gpt-4o
temperature: 0.2
system_prompt: Be terse.
strict: true
listen: ":9000"
log_level: debug
`)

	conf, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", conf.BaseURL)
	assert.Equal(t, openai.ChatModelGPT4o, conf.Model)
	require.NotNil(t, conf.Temperature)
	assert.InDelta(t, 0.2, *conf.Temperature, 1e-9)
	assert.True(t, conf.Strict)
	assert.Equal(t, ":9000", conf.Listen)
	assert.Equal(t, slog.LevelDebug, conf.Level())
	assert.Equal(t, int64(openai.DefaultMaxErrorBody), conf.MaxErrorBody)

	opts := conf.Options()
	assert.Equal(t, "Be terse.", opts.SystemPrompt)
	assert.True(t, opts.Strict)
	assert.Equal(t, conf.Temperature, opts.Temperature)
}

func TestRead_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-env")
	t.Setenv(EnvBaseURL, "http://env/v1")
	t.Setenv(EnvModel, "")
	path := writeFile(t, "api_key: sk-file\nbase_url: http://file/v1\nmodel: gpt-4o\n")

	conf, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", conf.APIKey)
	assert.Equal(t, "http://env/v1", conf.BaseURL)
	assert.Equal(t, openai.ChatModelGPT4o, conf.Model, "empty variable keeps the file value")
}

func TestRead_MissingFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvModel, "")
	conf, err := Read(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), *conf)
	assert.Equal(t, slog.LevelInfo, conf.Level())
}

func TestRead_Malformed(t *testing.T) {
	_, err := Read(writeFile(t, "model: [unterminated"))
	assert.Error(t, err)
}
