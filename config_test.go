package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ttpr0/go-transit/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestReadConfigDefaults(t *testing.T) {
	config, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestReadConfigFile(t *testing.T) {
	file := writeConfig(t, `
build:
  source:
    type: dir
    path: ./parser/testdata/simple
  transfer-time: 60
  walk-edges: false
model:
  path: ./models/test
  mmap: false
services:
  listen: "localhost:8080"
  max-results: 3
log-level: debug
`)
	config, err := ReadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, parser.SOURCE_DIR, config.Build.Source.Type)
	assert.Equal(t, "./parser/testdata/simple", config.Build.Source.Path)
	assert.Equal(t, int32(60), config.Build.TransferTime)
	assert.False(t, config.Build.WalkEdges)
	// untouched values keep their defaults
	assert.Equal(t, 4.5, config.Build.WalkSpeed)
	assert.False(t, config.Model.Mmap)
	assert.True(t, config.Model.VerifyChecksum)
	assert.Equal(t, 3, config.Services.MaxResults)
	assert.Equal(t, "debug", config.LogLevel)

	options := config.BuildOptions()
	assert.Equal(t, int32(60), options.TransferTime)
	assert.False(t, options.WalkEdges)
}

func TestReadConfigEnv(t *testing.T) {
	t.Setenv("GOTRANSIT_MODEL_PATH", "/tmp/model")
	t.Setenv("GOTRANSIT_LISTEN", ":9000")
	t.Setenv("GOTRANSIT_LOG_LEVEL", "WARN")
	t.Setenv("GOTRANSIT_WALK_EDGES", "false")
	t.Setenv("GOTRANSIT_SOURCE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/gtfs")

	config, err := ReadConfig(writeConfig(t, "services:\n  listen: \":7000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/model", config.Model.Path)
	assert.Equal(t, ":9000", config.Services.Listen)
	assert.Equal(t, "warn", config.LogLevel)
	assert.False(t, config.Build.WalkEdges)
	assert.Equal(t, parser.SOURCE_POSTGRES, config.Build.Source.Type)
	assert.Equal(t, "postgres://localhost/gtfs", config.Build.Source.Path)

	t.Setenv("GOTRANSIT_MAX_RESULTS", "many")
	_, err = ReadConfig(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestReadConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"log level":   "log-level: loud\n",
		"source type": "build:\n  source:\n    type: ftp\n    path: x\n",
		"walk speed":  "build:\n  walk-speed: 0\n",
		"listen":      "services:\n  listen: nowhere\n",
		"yaml":        "build: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO", ""} {
		_, err := ParseLogLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}
