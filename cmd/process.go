package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medscan/internal/analysis"
	"medscan/internal/logger"
	"medscan/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Run OCR, analysis and AI commentary on a report",
	Long: `Process a PDF or image report end to end:

  1. extract the text (OCR)
  2. extract and classify lab parameters, assess the risk
  3. ask the configured AI providers for commentary (Gemini, HuggingFace)
  4. optionally save the result as a medical record (MongoDB)
  5. optionally append the result to a Google Sheet

With --stream every stage is reported as one JSON object per line
(starting, ocr_complete, analysis_complete, <provider>_complete, complete,
or error).`,
	Example: `  # Full report on stdout
  medscan process blood_test.jpg

  # Stream progress events as NDJSON
  medscan process report.pdf --stream

  # Save to history and export to the configured sheet, no AI commentary
  medscan process report.pdf --no-insights --save --export`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringP("language", "l", "", "Language for recommendations (default: DEFAULT_LANGUAGE)")
	processCmd.Flags().Bool("stream", false, "Print progress events as NDJSON")
	processCmd.Flags().Bool("no-insights", false, "Skip AI commentary")
	processCmd.Flags().Bool("save", false, "Save the result to the record history")
	processCmd.Flags().Bool("export", false, "Append the result to the Google Sheet")
	processCmd.Flags().Bool("json", false, "Output the final report as JSON")
	processCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	processCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	lang, _ := cmd.Flags().GetString("language")
	stream, _ := cmd.Flags().GetBool("stream")
	noInsights, _ := cmd.Flags().GetBool("no-insights")
	save, _ := cmd.Flags().GetBool("save")
	export, _ := cmd.Flags().GetBool("export")
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

	doc, err := loadDocument(args[0], log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	ocrService, err := createOCRService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer ocrService.Close()

	var opts []pipeline.Option

	if !noInsights {
		insightService, cleanup, err := createInsightService(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()
		opts = append(opts, pipeline.WithInsights(insightService))
	}

	if save {
		repo, cleanup, err := createRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("cannot save records: %w", err)
		}
		defer cleanup()
		opts = append(opts, pipeline.WithRecords(repo))
	}

	if export {
		exporter, err := createExporter(ctx, cfg)
		if err != nil {
			return fmt.Errorf("cannot export to Google Sheets: %w", err)
		}
		opts = append(opts, pipeline.WithExporter(exporter, cfg.GoogleSheetWorksheet))
	}

	processor := pipeline.NewProcessor(ocrService, analysis.Default(), opts...)
	req := pipeline.Request{
		Document: doc,
		Language: lang,
		Insights: !noInsights,
		Save:     save,
		Export:   export,
	}

	if stream {
		out := os.Stdout
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
		}
		emit := pipeline.NDJSONWriter(out, func(err error) {
			log.Warn().Err(err).Msg("Failed to write progress event")
		})
		if _, err := processor.Run(ctx, req, emit); err != nil {
			return handleProcessError(err, log)
		}
		return nil
	}

	report, err := processor.Run(ctx, req, func(e pipeline.Event) {
		log.Debug().Str("status", e.Status).Msg("Progress")
	})
	if err != nil {
		return handleProcessError(err, log)
	}

	if jsonOutput {
		data, err := marshalJSON(report)
		if err != nil {
			return err
		}
		return writeOutput(data, outputPath, log)
	}
	return writeOutput([]byte(formatReport(report)), outputPath, log)
}

// handleProcessError maps OCR failures to friendly messages and passes
// everything else through.
func handleProcessError(err error, log zerolog.Logger) error {
	if isOCRError(err) {
		return handleOCRError(err, log)
	}
	return err
}

func formatReport(report *pipeline.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Extracted Text (%s) ===\n\n%s\n\n", report.OCRSource, strings.TrimSpace(report.ExtractedText))
	if !report.MedicalDocument {
		b.WriteString("Note: the document does not look like a medical report.\n\n")
	}
	b.WriteString("=== Analysis ===\n\n")
	b.WriteString(formatAnalysis(report.Analysis))
	if len(report.Insights) > 0 {
		b.WriteString(formatInsights(report.Insights))
	}
	if report.RecordID != "" {
		fmt.Fprintf(&b, "\nSaved as record %s\n", report.RecordID)
	}
	return b.String()
}
