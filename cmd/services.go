package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"medscan/internal/config"
	"medscan/internal/insights"
	"medscan/internal/ocr"
	"medscan/internal/records"
	"medscan/internal/sheets"
	"medscan/internal/speech"
	"medscan/internal/validation"
)

// loadConfig reads and validates the environment configuration.
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// createOCRService builds the document service for the configured engine.
func createOCRService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*ocr.DocumentService, error) {
	engine, err := createOCREngine(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	preprocess := ocr.DefaultPreprocessOptions()
	preprocess.MaxHeight = cfg.OCRMaxImageHeight

	opts := []ocr.DocumentServiceOption{
		ocr.WithPreprocessing(preprocess),
		ocr.WithMaxPDFPages(cfg.OCRPDFMaxPages),
	}

	if cfg.UnidocLicenseKey != "" {
		textLayer, err := ocr.NewPDFTextExtractor(cfg.UnidocLicenseKey, cfg.OCRPDFMaxPages)
		if err != nil {
			log.Warn().Err(err).Msg("PDF text layer disabled")
		} else {
			opts = append(opts, ocr.WithTextLayer(textLayer))
		}
	}

	log.Debug().
		Str("engine", engine.Name()).
		Int("max_pdf_pages", cfg.OCRPDFMaxPages).
		Bool("text_layer", cfg.UnidocLicenseKey != "").
		Msg("OCR service created successfully")

	return ocr.NewDocumentService(engine, opts...), nil
}

func createOCREngine(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Engine, error) {
	if cfg.OCRProvider == "documentai" {
		engine, err := ocr.NewDocumentAIOCRService(ctx, ocr.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create Document AI engine")
			return nil, credentialsError(err)
		}
		return engine, nil
	}

	hasCredentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""
	if !hasCredentials {
		log.Warn().Msg("Google Cloud credentials not set, trying application default credentials")
	}

	engine, err := ocr.NewGoogleVisionOCRService(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create OCR service")
		return nil, credentialsError(err)
	}
	return engine, nil
}

func credentialsError(err error) error {
	if errors.Is(err, ocr.ErrMissingCredentials) {
		return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Export GOOGLE_CREDENTIALS with inline JSON:\n" +
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n" +
			"3. Use Application Default Credentials (if gcloud is configured):\n" +
			"   gcloud auth application-default login")
	}
	if errors.Is(err, ocr.ErrInvalidConfiguration) {
		return fmt.Errorf("OCR engine misconfigured: %w", err)
	}
	return fmt.Errorf("failed to create OCR service: %w", err)
}

// createInsightService builds the configured providers, each behind the Redis
// cache when one is configured. The returned cleanup closes the cache client.
func createInsightService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*insights.Service, func(), error) {
	gemini, err := insights.NewGeminiProvider(ctx, insights.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		MaxRetries: cfg.InsightsMaxRetries,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini provider: %w", err)
	}

	hf := insights.NewOpenAIProvider(insights.OpenAIConfig{
		Name:       "hf",
		APIKey:     cfg.HFAPIToken,
		BaseURL:    cfg.HFBaseURL,
		Model:      cfg.HFModel,
		MaxRetries: cfg.InsightsMaxRetries,
	})

	providers := []insights.Provider{gemini, hf}
	cleanup := func() {}

	if cfg.CacheEnabled() {
		client, err := insights.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn().Err(err).Msg("Insight cache unavailable, continuing without it")
		} else {
			for i, p := range providers {
				providers[i] = insights.NewCachedProvider(p, client, cfg.InsightsCacheTTL)
			}
			cleanup = func() {
				if err := client.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close Redis client")
				}
			}
		}
	}

	return insights.NewService(providers...), cleanup, nil
}

// createRepository connects to MongoDB. The returned cleanup disconnects.
func createRepository(ctx context.Context, cfg *config.Config) (*records.MongoRepository, func(), error) {
	if err := cfg.RequireRecords(); err != nil {
		return nil, nil, err
	}

	client, err := records.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = client.Disconnect(context.Background())
	}
	return records.NewMongoRepository(client, cfg.MongoDatabase), cleanup, nil
}

func createExporter(ctx context.Context, cfg *config.Config) (*sheets.Service, error) {
	if err := cfg.RequireSheets(); err != nil {
		return nil, err
	}
	return sheets.NewSheetsService(ctx, cfg.GoogleSheetURL, cfg.GoogleServiceAccountKey)
}

func createSynthesizer(ctx context.Context, cfg *config.Config) (*speech.OpenAISynthesizer, error) {
	if err := cfg.RequireSpeech(); err != nil {
		return nil, err
	}

	var store speech.AudioStore
	if cfg.MinioEnabled() {
		minioStore, err := speech.NewMinioStore(ctx, speech.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		store = minioStore
	} else {
		localStore, err := speech.NewLocalStore(cfg.AudioDir, cfg.AudioPublicPrefix)
		if err != nil {
			return nil, err
		}
		store = localStore
	}

	return speech.NewOpenAISynthesizer(speech.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAITTSModel,
		Voice:  cfg.OpenAITTSVoice,
	}, store)
}

// resolveLanguage validates lang, falling back to DEFAULT_LANGUAGE when empty.
func resolveLanguage(lang string, cfg *config.Config) (string, error) {
	if lang == "" && cfg != nil {
		lang = cfg.DefaultLanguage
	}
	if err := validation.ValidateLanguage(lang); err != nil {
		return "", err
	}
	return lang, nil
}
