package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("STORAGE_PATH", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Session.FlushInterval)
	assert.Equal(t, 30*time.Second, cfg.Session.HistoryWindow)
	assert.Equal(t, 20, cfg.Session.UtteranceBufferCap)
	assert.Equal(t, 10, cfg.Session.NameCheckEvery)
	assert.Equal(t, "./data", cfg.StoragePath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("SPEECH_API_URL", "http://localhost:7000/transcribe")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "http://localhost:7000/transcribe", cfg.Speech.URL)
}
