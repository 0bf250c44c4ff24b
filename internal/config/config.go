package config

import (
	"os"
	"strconv"
	"time"
)

// Storage backend names accepted by ARIA_STORAGE.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config carries everything the server reads from the environment.
type Config struct {
	Port string

	StorageBackend string
	StatePath      string

	JWTSecret string
	JWTTTL    time.Duration

	// Artificial thinking delay of the response engine.
	ResponseDelayBase   time.Duration
	ResponseDelayJitter time.Duration

	// Result of the platform speech feature detection.
	SpeechAvailable bool
	CaptureDelay    time.Duration

	// Tag applied to messages submitted through this server.
	OriginDevice string
}

// FromEnv builds the configuration from environment variables,
// falling back to development defaults.
func FromEnv() Config {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		StorageBackend:      getEnv("ARIA_STORAGE", StorageFile),
		StatePath:           getEnv("ARIA_STATE_PATH", ""),
		JWTSecret:           getEnv("ARIA_JWT_SECRET", "dev-only-secret"),
		JWTTTL:              getDuration("ARIA_JWT_TTL", 24*time.Hour),
		ResponseDelayBase:   getDuration("ARIA_RESPONSE_DELAY", time.Second),
		ResponseDelayJitter: getDuration("ARIA_RESPONSE_JITTER", 2*time.Second),
		SpeechAvailable:     getBool("ARIA_SPEECH_AVAILABLE", true),
		CaptureDelay:        getDuration("ARIA_CAPTURE_DELAY", 1500*time.Millisecond),
		OriginDevice:        getEnv("ARIA_ORIGIN_DEVICE", "aria-server"),
	}

	if cfg.StatePath == "" {
		switch cfg.StorageBackend {
		case StorageSQLite:
			cfg.StatePath = "aria.db"
		default:
			cfg.StatePath = "assistant_state.json"
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
