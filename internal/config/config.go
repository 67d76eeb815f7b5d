package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AttachmentFailMode controls what the attachment resolver does when one
// inline attachment cannot be resolved.
type AttachmentFailMode string

const (
	// FailSoft drops the attachment with a diagnostic log and proceeds.
	FailSoft AttachmentFailMode = "soft"
	// FailHard rejects the whole message on the first unresolvable attachment.
	FailHard AttachmentFailMode = "hard"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	JWTSecret       string
	TokenExpiration time.Duration
	LogLevel        string

	// Provider backends.
	OpenAIAPIKey  string
	OpenAIBaseURL string // optional; empty means the SDK default
	GeminiAPIKey  string

	// Upload area.
	UploadDir      string
	UploadURLPath  string // reserved prefix used inside inline attachment syntax
	MaxUploadBytes int64

	AttachmentFailMode AttachmentFailMode
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	tokenExpHours, err := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	if err != nil || tokenExpHours <= 0 {
		log.Printf("Warning: Invalid JWT_EXPIRATION_HOURS, using default 24h")
		tokenExpHours = 24
	}

	maxUploadBytes, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "10485760"), 10, 64)
	if err != nil || maxUploadBytes <= 0 {
		log.Printf("Warning: Invalid MAX_UPLOAD_BYTES, using default 10MiB")
		maxUploadBytes = 10 << 20
	}

	failMode := AttachmentFailMode(getEnv("ATTACHMENT_FAIL_MODE", string(FailSoft)))
	if failMode != FailSoft && failMode != FailHard {
		return nil, fmt.Errorf("ATTACHMENT_FAIL_MODE must be %q or %q, got %q", FailSoft, FailHard, failMode)
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        dbURL,
		JWTSecret:          getEnv("JWT_SECRET", "default-super-secret-key"), // CHANGE THIS IN PRODUCTION!
		TokenExpiration:    time.Hour * time.Duration(tokenExpHours),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		UploadURLPath:      "/uploads/",
		MaxUploadBytes:     maxUploadBytes,
		AttachmentFailMode: failMode,
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
