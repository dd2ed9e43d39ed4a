package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medscan/internal/logger"
	"medscan/internal/records"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved medical records",
	Long: `List and show medical records saved with "medscan process --save".

Requires MONGO_URI (and optionally MONGO_DATABASE).`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent records",
	Example: `  medscan history list
  medscan history list --limit 25`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:     "show [id]",
	Short:   "Show one record",
	Example: `  medscan history show 65f0c0ffee0000000000abcd --json`,
	Args:    cobra.ExactArgs(1),
	RunE:    runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	historyCmd.PersistentFlags().Int("timeout", 30, "Database timeout in seconds")
	historyListCmd.Flags().IntP("limit", "n", records.DefaultLimit, "Number of records to list")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("history")

	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	repo, cleanup, err := createRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	found, err := repo.FindRecent(ctx, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := marshalJSON(found)
		if err != nil {
			return err
		}
		return writeOutput(data, "", log)
	}

	if len(found) == 0 {
		fmt.Println("No records found.")
		return nil
	}
	var b strings.Builder
	for _, r := range found {
		b.WriteString(formatRecordLine(r))
		b.WriteString("\n")
	}
	return writeOutput([]byte(b.String()), "", log)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("history")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	repo, cleanup, err := createRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	record, err := repo.FindByID(ctx, args[0])
	if err != nil {
		switch {
		case errors.Is(err, records.ErrInvalidID):
			return fmt.Errorf("%q is not a record id", args[0])
		case errors.Is(err, records.ErrNotFound):
			return fmt.Errorf("no record with id %s", args[0])
		}
		return err
	}

	if jsonOutput {
		data, err := marshalJSON(record)
		if err != nil {
			return err
		}
		return writeOutput(data, "", log)
	}

	var b strings.Builder
	b.WriteString(formatRecordLine(*record))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s\n", record.Summary)
	for _, p := range record.Parameters {
		fmt.Fprintf(&b, "  %-14s %8g %-6s %s\n", p.Name, p.Value, p.Unit, p.Status)
	}
	for i, r := range record.Recommendations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, r)
	}
	if record.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", record.Notes)
	}
	return writeOutput([]byte(b.String()), "", log)
}
