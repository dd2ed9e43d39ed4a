package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"medscan/internal/analysis"
	"medscan/internal/config"
	"medscan/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text-file|-]",
	Short: "Analyze the text of a lab report",
	Long: `Extract clinical parameters from report text, classify them against
reference ranges and summarize the overall risk.

The text is read from the given file, or from stdin when the argument is
"-" or missing. No network access is needed.`,
	Example: `  # Analyze a text file
  medscan analyze report.txt

  # Pipe text in and print JSON
  echo "Glucose: 150 mg/dl, BP: 130/85 mmHg" | medscan analyze --json

  # Recommendations in Hindi
  medscan analyze report.txt --language hi -o analysis.json --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("language", "l", "", "Language for recommendations (en, hi, es, fr, de)")
	analyzeCmd.Flags().Bool("json", false, "Output as JSON")
	analyzeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	lang, _ := cmd.Flags().GetString("language")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")

	// Configuration is optional for plain analysis.
	cfg, err := config.Load()
	if err != nil {
		log.Debug().Err(err).Msg("Configuration not loaded, using defaults")
		cfg = nil
	}
	lang, err = resolveLanguage(lang, cfg)
	if err != nil {
		return err
	}

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readTextInput(path, os.Stdin)
	if err != nil {
		return err
	}

	result := analysis.Default().Analyze(text, lang)

	if jsonOutput {
		data, err := marshalJSON(result)
		if err != nil {
			return err
		}
		return writeOutput(data, outputPath, log)
	}
	return writeOutput([]byte(formatAnalysis(result)), outputPath, log)
}
