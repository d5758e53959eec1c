package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerPort string

	// LLM provider. GoogleAPIKey is required; ModelName is optional and
	// resolved by probing when empty.
	GoogleAPIKey string
	ModelName    string
	GeminiAPIURL string

	// Spotify credentials. Optional; when absent, music enrichment is
	// silently disabled.
	SpotifyClientID     string
	SpotifyClientSecret string

	// Redis is optional and only used as a shared Spotify token cache.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogFile  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() does not override variables already set in the
	// environment, so production deployments win over a stray .env file.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8000"),
		GoogleAPIKey:        os.Getenv("GOOGLE_API_KEY"),
		ModelName:           os.Getenv("MODEL_NAME"),
		GeminiAPIURL:        getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		RedisHost:           os.Getenv("REDIS_HOST"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFile:             getEnv("LOG_FILE", ""),
	}
}

// Validate checks for configuration the process cannot run without.
func (c *Config) Validate() error {
	if c.GoogleAPIKey == "" {
		return errors.New("no GOOGLE_API_KEY found - set it in your .env or deployment environment variables")
	}
	return nil
}

// SpotifyEnabled reports whether catalog enrichment is configured.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// RedisEnabled reports whether the shared token cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}
