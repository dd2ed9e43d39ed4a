package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medscan/internal/analysis"
	"medscan/internal/insights"
	"medscan/internal/logger"
	"medscan/pkg/models"
)

var insightsCmd = &cobra.Command{
	Use:   "insights [text-file|-]",
	Short: "Ask AI providers for commentary on report text",
	Long: `Analyze report text locally and ask generative-AI providers for a
narrative explanation of the findings. The commentary is displayed as-is.

Providers:
  gemini       - Google Gemini (GEMINI_API_KEY, GEMINI_MODEL)
  hf           - Hugging Face, OpenAI-compatible endpoint (HF_API_TOKEN, HF_BASE_URL, HF_MODEL)

Responses are cached in Redis when REDIS_ADDR is set.`,
	Example: `  # Ask every provider
  medscan insights report.txt

  # Only Gemini, JSON output
  medscan insights report.txt --provider gemini --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)

	insightsCmd.Flags().StringP("provider", "p", "all", "Provider to ask: gemini, hf or all")
	insightsCmd.Flags().StringP("language", "l", "", "Language for recommendations (default: DEFAULT_LANGUAGE)")
	insightsCmd.Flags().Bool("json", false, "Output as JSON")
	insightsCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	insightsCmd.Flags().Int("timeout", 120, "Request timeout in seconds")
}

type insightsOutput struct {
	Analysis models.AnalysisResult `json:"analysis_result"`
	Insights []insights.Result     `json:"insights"`
}

func runInsights(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("insights")

	provider, _ := cmd.Flags().GetString("provider")
	lang, _ := cmd.Flags().GetString("language")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
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

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	service, cleanup, err := createInsightService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	result := analysis.Default().Analyze(text, lang)

	var results []insights.Result
	if provider == "all" {
		results = service.Collect(ctx, text, &result)
	} else {
		r, err := service.Query(ctx, provider, text, &result)
		if err != nil {
			return fmt.Errorf("%w (available: %v)", err, service.Providers())
		}
		results = []insights.Result{r}
	}

	if jsonOutput {
		data, err := marshalJSON(insightsOutput{Analysis: result, Insights: results})
		if err != nil {
			return err
		}
		return writeOutput(data, outputPath, log)
	}
	return writeOutput([]byte(formatAnalysis(result)+formatInsights(results)), outputPath, log)
}
