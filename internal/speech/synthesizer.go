// Package speech renders report summaries as spoken audio.
package speech

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"medscan/internal/logger"
)

// MaxSpeechChars is the longest text sent for synthesis.
const MaxSpeechChars = 1000

// Truncate shortens text to at most limit characters.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// Synthesizer turns text into audio and returns where the audio can be found.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (string, error)
}

// speechCreator is the part of the go-openai client used here.
type speechCreator interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAIConfig configures OpenAI text-to-speech.
type OpenAIConfig struct {
	APIKey string
	Model  string
	Voice  string
}

// OpenAISynthesizer renders MP3 audio with the OpenAI speech API.
type OpenAISynthesizer struct {
	client speechCreator
	store  AudioStore
	config OpenAIConfig
	log    zerolog.Logger
}

// NewOpenAISynthesizer creates a synthesizer writing to store.
func NewOpenAISynthesizer(config OpenAIConfig, store AudioStore) (*OpenAISynthesizer, error) {
	const op = "NewOpenAISynthesizer"

	if config.APIKey == "" {
		return nil, WrapSpeechError(op, ErrNotConfigured, "OPENAI_API_KEY is required")
	}
	if config.Model == "" {
		config.Model = string(openai.TTSModel1)
	}
	if config.Voice == "" {
		config.Voice = string(openai.VoiceAlloy)
	}

	return &OpenAISynthesizer{
		client: openai.NewClient(config.APIKey),
		store:  store,
		config: config,
		log:    logger.WithComponent("speech"),
	}, nil
}

// Synthesize implements Synthesizer. Text beyond MaxSpeechChars is dropped.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, language string) (string, error) {
	const op = "Synthesize"

	text = strings.TrimSpace(Truncate(text, MaxSpeechChars))
	if text == "" {
		return "", WrapSpeechError(op, ErrEmptyText, "")
	}

	s.log.Debug().
		Str("language", language).
		Str("voice", s.config.Voice).
		Int("text_length", len(text)).
		Msg("Synthesizing speech")

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return "", WrapSpeechError(op, err, "speech request failed")
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return "", WrapSpeechError(op, err, "failed to read audio")
	}

	location, err := s.store.Save(ctx, audio)
	if err != nil {
		return "", WrapSpeechError(op, err, "")
	}

	s.log.Info().
		Str("location", location).
		Int("bytes", len(audio)).
		Msg("Speech synthesized")

	return location, nil
}
