package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DefaultLanguage != "en" || cfg.OCRProvider != "vision" {
		t.Errorf("unexpected defaults: language=%s provider=%s", cfg.DefaultLanguage, cfg.OCRProvider)
	}
	if cfg.OCRMaxImageHeight != 1000 || cfg.OCRPDFMaxPages != 1 {
		t.Errorf("unexpected OCR defaults: height=%d pages=%d", cfg.OCRMaxImageHeight, cfg.OCRPDFMaxPages)
	}
	if cfg.InsightsCacheTTL != 24*time.Hour || cfg.CacheEnabled() {
		t.Errorf("cache should default to 24h and be disabled without REDIS_ADDR")
	}
	if cfg.GoogleSheetWorksheet != "Analyses" || cfg.MongoDatabase != "medscan" {
		t.Errorf("unexpected store defaults: %+v", cfg)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DEFAULT_LANGUAGE", "HI")
	t.Setenv("OCR_PDF_MAX_PAGES", "3")
	t.Setenv("INSIGHTS_CACHE_TTL", "90m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DefaultLanguage != "hi" {
		t.Errorf("language = %s, want hi", cfg.DefaultLanguage)
	}
	if cfg.OCRPDFMaxPages != 3 {
		t.Errorf("pdf pages = %d, want 3", cfg.OCRPDFMaxPages)
	}
	if cfg.InsightsCacheTTL != 90*time.Minute || !cfg.CacheEnabled() {
		t.Errorf("cache ttl = %s, enabled = %v", cfg.InsightsCacheTTL, cfg.CacheEnabled())
	}
	if !cfg.MinioUseSSL {
		t.Error("MINIO_USE_SSL not applied")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{"unsupported language", map[string]string{"DEFAULT_LANGUAGE": "it"}, "DefaultLanguage"},
		{"unknown provider", map[string]string{"OCR_PROVIDER": "tesseract"}, "OCRProvider"},
		{"document ai without processor", map[string]string{"OCR_PROVIDER": "documentai", "GOOGLE_CLOUD_PROJECT": "p"}, "DocumentAIProcessorID"},
		{"minio without keys", map[string]string{"MINIO_ENDPOINT": "localhost:9000"}, "MinioAccessKey"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "LogLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestRequireHelpers(t *testing.T) {
	cfg := &Config{}
	for _, err := range []error{cfg.RequireSpeech(), cfg.RequireRecords(), cfg.RequireSheets()} {
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("err = %v, want ErrNotConfigured", err)
		}
	}

	cfg = &Config{OpenAIAPIKey: "k", MongoURI: "mongodb://localhost", GoogleSheetURL: "https://docs.google.com/spreadsheets/d/x"}
	if cfg.RequireSpeech() != nil || cfg.RequireRecords() != nil || cfg.RequireSheets() != nil {
		t.Error("configured features reported as missing")
	}
}
