package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"medscan/internal/logger"
	"medscan/internal/speech"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Read a summary aloud as an MP3 file",
	Long: `Render text as spoken audio with the OpenAI speech API.

Only the first 1000 characters are spoken. The audio is written to
AUDIO_DIR (served under AUDIO_PUBLIC_PREFIX) or, when MINIO_ENDPOINT is set,
uploaded to the MINIO_BUCKET bucket. The command prints the audio location.`,
	Example: `  # Speak a short text
  medscan voice --text "Your glucose level is above the normal range."

  # Speak the contents of a file
  medscan voice --file summary.txt --language hi`,
	RunE: runVoice,
}

func init() {
	rootCmd.AddCommand(voiceCmd)

	voiceCmd.Flags().StringP("text", "t", "", "Text to speak")
	voiceCmd.Flags().StringP("file", "f", "", "Read the text from a file (- for stdin)")
	voiceCmd.Flags().StringP("language", "l", "", "Language of the text (default: DEFAULT_LANGUAGE)")
	voiceCmd.Flags().Int("timeout", 120, "Request timeout in seconds")
}

func runVoice(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("voice")

	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")
	lang, _ := cmd.Flags().GetString("language")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	if text == "" && file == "" {
		return fmt.Errorf("no text provided: use --text or --file")
	}
	if file != "" {
		content, err := readTextInput(file, os.Stdin)
		if err != nil {
			return err
		}
		text = content
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	lang, err = resolveLanguage(lang, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	synthesizer, err := createSynthesizer(ctx, cfg)
	if err != nil {
		return err
	}

	location, err := synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		switch {
		case errors.Is(err, speech.ErrEmptyText):
			return fmt.Errorf("no text provided")
		case errors.Is(err, speech.ErrStorageFailed):
			return fmt.Errorf("audio could not be stored: %w", err)
		default:
			return fmt.Errorf("voice generation failed: %w", err)
		}
	}

	fmt.Println(strings.TrimSpace(location))
	return nil
}
