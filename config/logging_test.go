package config

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLogTeesToSettingsFile(t *testing.T) {
	t.Cleanup(func() {
		LogWriter = os.Stdout
		log.SetOutput(os.Stderr)
	})

	path := filepath.Join(t.TempDir(), "nested", "dar.log")
	writer, closeLog, err := OpenLog(Settings{LogFile: path})
	require.NoError(t, err)
	assert.Equal(t, LogWriter, writer)

	log.Print("[lifecycle] written to file")
	require.NoError(t, closeLog())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[lifecycle] written to file")
}

func TestOpenLogWithoutFileUsesStdout(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	writer, closeLog, err := OpenLog(Settings{})
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, writer)
	assert.NoError(t, closeLog())
}

func TestLogFileSetting(t *testing.T) {
	t.Setenv("LOG_FILE", "")
	assert.Equal(t, filepath.Join("logs", "dar-api.log"), LoadSettings().LogFile)

	t.Setenv("LOG_FILE", "-")
	assert.Empty(t, LoadSettings().LogFile)

	t.Setenv("LOG_FILE", "/var/log/dar.log")
	assert.Equal(t, "/var/log/dar.log", LoadSettings().LogFile)
}
