package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// GeminiConfig defines the AI structuring service connection.
type GeminiConfig struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// OCRConfig defines OCR engine and page rendering behavior.
type OCRConfig struct {
	Languages   string // tesseract language codes, "+"-separated
	DPI         int
	JPEGQuality int
	ColorMode   string // "rgb" or "gray"
}

// ScanConfig defines batch processing behavior and limits.
type ScanConfig struct {
	Concurrency  int
	MinTextChars int
	FileTimeout  time.Duration
	MaxUploadMB  int
	TempDir      string
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Gemini  GeminiConfig
	OCR     OCRConfig
	Scan    ScanConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/passscan.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_passscan",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	// Gemini defaults
	cfg.Gemini = GeminiConfig{
		APIKey:    getEnv("GEMINI_API_KEY", ""),
		Model:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		Timeout:   parseDuration(getEnv("GEMINI_TIMEOUT", "60s"), 60*time.Second),
		MaxTokens: parseInt(getEnv("GEMINI_MAX_TOKENS", "4096"), 4096),
	}

	// OCR defaults
	cfg.OCR = OCRConfig{
		Languages:   getEnv("OCR_LANGUAGES", "eng"),
		DPI:         parseInt(getEnv("OCR_RENDER_DPI", "200"), 200),
		JPEGQuality: parseInt(getEnv("OCR_JPEG_QUALITY", "85"), 85),
		ColorMode:   getEnv("OCR_COLOR_MODE", "gray"),
	}

	// Scan defaults
	cfg.Scan = ScanConfig{
		Concurrency:  parseInt(getEnv("SCAN_CONCURRENCY", "4"), 4),
		MinTextChars: parseInt(getEnv("SCAN_MIN_TEXT_CHARS", "20"), 20),
		FileTimeout:  parseDuration(getEnv("SCAN_FILE_TIMEOUT", "120s"), 120*time.Second),
		MaxUploadMB:  parseInt(getEnv("SCAN_MAX_UPLOAD_MB", "64"), 64),
		TempDir:      getEnv("SCAN_TEMP_DIR", "tmp"),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
