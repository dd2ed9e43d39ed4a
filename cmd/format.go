package cmd

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"medscan/internal/insights"
	"medscan/pkg/models"
)

var titleCase = cases.Title(language.English)

// formatAnalysis renders an analysis for the terminal.
func formatAnalysis(result models.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Risk level: %s\n", strings.ToUpper(string(result.RiskLevel)))
	if result.AnalysisDate != "" {
		fmt.Fprintf(&b, "Analyzed at: %s\n", result.AnalysisDate)
	}
	if result.Degraded() {
		fmt.Fprintf(&b, "Error: %s\n", result.Error)
	}
	fmt.Fprintf(&b, "\n%s\n", result.Summary)

	if len(result.Parameters) > 0 {
		fmt.Fprintf(&b, "\nParameters (%d of %d normal):\n", result.NormalCount(), len(result.Parameters))
		for _, p := range result.Parameters {
			fmt.Fprintf(&b, "  %-14s %8g %-6s %-9s (normal %s)\n", p.Name, p.Value, p.Unit, titleCase.String(string(p.Status)), p.NormalRange)
		}
	}

	if len(result.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for i, r := range result.Recommendations {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, r)
		}
	}
	return b.String()
}

// formatInsights renders provider commentary.
func formatInsights(results []insights.Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "\n=== %s (%s) ===\n", titleCase.String(r.Provider), r.Insight.Source)
		switch {
		case r.Insight.Error != "":
			fmt.Fprintf(&b, "Unavailable: %s\n", r.Insight.Error)
		default:
			if r.Insight.Cached {
				b.WriteString("(cached)\n")
			}
			b.WriteString(strings.TrimSpace(r.Insight.RawResponse))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatRecordLine renders a record as one history line.
func formatRecordLine(r models.MedicalRecord) string {
	return fmt.Sprintf("%s  %s  %-8s  %-10s  %s",
		r.ID,
		r.CreatedAt.Format("2006-01-02 15:04"),
		r.RiskLevel,
		r.RecordType,
		r.Title,
	)
}
