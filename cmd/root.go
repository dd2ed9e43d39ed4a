package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medscan/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "medscan",
	Short: "medscan - medical report OCR and lab value analysis",
	Long: `medscan reads scanned or digital lab reports, extracts clinical
parameters such as glucose, blood pressure and hemoglobin, classifies
them against reference ranges and summarizes the overall risk.

Optional stages add commentary from generative-AI providers, spoken
summaries, a MongoDB record history and a Google Sheets export.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("medscan executed")

		fmt.Println("Welcome to medscan!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
