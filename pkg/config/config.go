package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Session     SessionConfig
	Speech      SpeechConfig
	LLM         LLMConfig
	StoragePath string
}

type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type SessionConfig struct {
	FlushInterval      time.Duration
	HistoryWindow      time.Duration
	FingerprintClip    time.Duration
	UtteranceBufferCap int
	NameCheckEvery     int
}

type SpeechConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Config: no .env file loaded: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Address:      envOr("SERVER_ADDRESS", ":8080"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Session: SessionConfig{
			FlushInterval:      10 * time.Second,
			HistoryWindow:      30 * time.Second,
			FingerprintClip:    10 * time.Second,
			UtteranceBufferCap: 20,
			NameCheckEvery:     10,
		},
		Speech: SpeechConfig{
			URL:     envOr("SPEECH_API_URL", "https://api.speech.example.com/v1/transcribe"),
			APIKey:  os.Getenv("SPEECH_API_KEY"),
			Timeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout: 15 * time.Second,
		},
		StoragePath: envOr("STORAGE_PATH", "./data"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
