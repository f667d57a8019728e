package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":9003", config.Bind)
	assert.Equal(t, time.Duration(0), config.Delay)
	assert.Contains(t, config.Search.Command, placeholderQuery)
}

func TestLoadConfigOverrides(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "settle.yaml")
	err := os.WriteFile(configFile, []byte(`delay: 250ms
bind: 127.0.0.1:8080
search:
  command: [rg, --color=always, "{query}"]
watch:
  extensions: [.go, .tmpl]
  command: [go, vet, ./...]
`), 0o644)
	require.NoError(t, err)

	config, err := loadConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, config.Delay)
	assert.Equal(t, "127.0.0.1:8080", config.Bind)
	assert.Equal(t, []string{"rg", "--color=always", "{query}"}, config.Search.Command)
	assert.Equal(t, []string{".go", ".tmpl"}, config.Watch.Extensions)
	assert.Equal(t, ".", config.Watch.Root)
	assert.Equal(t, "settle.log", config.LogFile)
}

func TestLoadConfigRejectsNegativeDelay(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "settle.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("delay: -1s\n"), 0o644))

	_, err := loadConfig(configFile)
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatElapsed(t *testing.T) {
	elapsed := time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond
	assert.Equal(t, "[+01:02:03.045]", formatElapsed(elapsed, true))
	assert.Equal(t, "\x1b[90m[+01:02:03.045]\x1b[0m", formatElapsed(elapsed, false))
}
