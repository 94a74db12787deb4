package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries all process-wide settings. It is built once at startup and
// handed explicitly to each component; nothing reads ambient environment
// state after FromEnv returns.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// LiveNamespace is the URL prefix the media server publishes live
	// feeds under.
	LiveNamespace string

	// FFmpegBinary is the frame-extraction tool; resolved from PATH when
	// left as the bare name.
	FFmpegBinary string

	// PreviewSeek is how far into a recording the preview frame is taken,
	// in ffmpeg time syntax (HH:MM:SS).
	PreviewSeek string
}

// FromEnv builds a Config from environment variables, falling back to
// defaults. Call Load first to pick up a .env file.
func FromEnv() Config {
	return Config{
		Port:          GetEnv("PORT", "8080"),
		LogLevel:      GetEnv("LOG_LEVEL", "info"),
		LogFormat:     GetEnv("LOG_FORMAT", "json"),
		LiveNamespace: GetEnv("LIVE_NAMESPACE", "/live"),
		FFmpegBinary:  GetEnv("FFMPEG_BINARY", "ffmpeg"),
		PreviewSeek:   GetEnv("PREVIEW_SEEK", "00:01:00"),
	}
}

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
