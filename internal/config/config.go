package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"medscan/internal/logger"
)

var (
	// ErrNotConfigured is returned by the Require* helpers when a feature's keys are missing.
	ErrNotConfigured = errors.New("feature not configured")

	validate = validator.New()
)

type Config struct {
	// General
	DefaultLanguage string `validate:"oneof=en hi es fr de"`

	// OCR Configuration
	OCRProvider           string `validate:"oneof=vision documentai"`
	GoogleCloudProject    string `validate:"required_if=OCRProvider documentai"`
	GoogleCloudLocation   string
	DocumentAIProcessorID string `validate:"required_if=OCRProvider documentai"`
	OCRMaxImageHeight     int    `validate:"min=100"`
	OCRPDFMaxPages        int    `validate:"min=1,max=5"`
	UnidocLicenseKey      string

	// Insight providers
	GeminiAPIKey       string
	GeminiModel        string `validate:"required"`
	HFAPIToken         string
	HFBaseURL          string `validate:"required,url"`
	HFModel            string `validate:"required"`
	InsightsMaxRetries int    `validate:"min=1,max=10"`

	// Insight cache
	RedisAddr        string
	RedisPassword    string
	InsightsCacheTTL time.Duration `validate:"min=0"`

	// Speech
	OpenAIAPIKey      string
	OpenAITTSModel    string `validate:"required"`
	OpenAITTSVoice    string `validate:"oneof=alloy echo fable onyx nova shimmer"`
	AudioDir          string `validate:"required"`
	AudioPublicPrefix string
	MinioEndpoint     string
	MinioAccessKey    string `validate:"required_with=MinioEndpoint"`
	MinioSecretKey    string `validate:"required_with=MinioEndpoint"`
	MinioBucket       string `validate:"required"`
	MinioUseSSL       bool

	// Record store
	MongoURI      string
	MongoDatabase string `validate:"required"`

	// Google Sheets Configuration
	GoogleServiceAccountKey string
	GoogleSheetURL          string
	GoogleSheetWorksheet    string `validate:"required"`

	// Logging Configuration
	LogLevel      string `validate:"oneof=trace debug info warn error fatal panic"`
	LogFormat     string `validate:"oneof=json console"`
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		DefaultLanguage:         strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en")),
		OCRProvider:             strings.ToLower(getEnv("OCR_PROVIDER", "vision")),
		GoogleCloudProject:      getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:     getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:   getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		OCRMaxImageHeight:       getIntEnv("OCR_MAX_IMAGE_HEIGHT", 1000),
		OCRPDFMaxPages:          getIntEnv("OCR_PDF_MAX_PAGES", 1),
		UnidocLicenseKey:        getEnv("UNIDOC_LICENSE_API_KEY", ""),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		GeminiModel:             getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		HFAPIToken:              getEnv("HF_API_TOKEN", ""),
		HFBaseURL:               getEnv("HF_BASE_URL", "https://router.huggingface.co/v1"),
		HFModel:                 getEnv("HF_MODEL", "meta-llama/Llama-3.1-8B-Instruct"),
		InsightsMaxRetries:      getIntEnv("INSIGHTS_MAX_RETRIES", 3),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		InsightsCacheTTL:        getDurationEnv("INSIGHTS_CACHE_TTL", 24*time.Hour),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		OpenAITTSModel:          getEnv("OPENAI_TTS_MODEL", "tts-1"),
		OpenAITTSVoice:          getEnv("OPENAI_TTS_VOICE", "alloy"),
		AudioDir:                getEnv("AUDIO_DIR", "static/audio"),
		AudioPublicPrefix:       getEnv("AUDIO_PUBLIC_PREFIX", "/static/audio"),
		MinioEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:             getEnv("MINIO_BUCKET", "audio"),
		MinioUseSSL:             getBoolEnv("MINIO_USE_SSL", false),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "medscan"),
		GoogleServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		GoogleSheetURL:          getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:    getEnv("GOOGLE_SHEET_WORKSHEET", "Analyses"),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "console")),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:               getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed on %s (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(messages, "; "))
}

// RequireSpeech checks the keys needed for speech synthesis.
func (c *Config) RequireSpeech() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required for speech", ErrNotConfigured)
	}
	return nil
}

// RequireRecords checks the keys needed for the record store.
func (c *Config) RequireRecords() error {
	if c.MongoURI == "" {
		return fmt.Errorf("%w: MONGO_URI is required for history", ErrNotConfigured)
	}
	return nil
}

// RequireSheets checks the keys needed for the sheet export.
func (c *Config) RequireSheets() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("%w: GOOGLE_SHEET_URL is required for export", ErrNotConfigured)
	}
	return nil
}

// CacheEnabled reports whether insights are cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != "" && c.InsightsCacheTTL > 0
}

// MinioEnabled reports whether audio goes to object storage instead of AUDIO_DIR.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
