package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"medscan/pkg/models"
)

// Headers are the worksheet columns, in order.
var Headers = []string{
	"File", "Date", "Risk Level", "Summary", "Parameters",
	"Abnormalities", "Recommendations", "Status", "Processed",
}

// ProcessedLayout is the layout of the Processed column.
const ProcessedLayout = "2006-01-02 15:04:05"

// AnalysisRow is one exported analysis.
type AnalysisRow struct {
	File            string
	Date            string
	RiskLevel       string
	Summary         string
	Parameters      string
	Abnormalities   string
	Recommendations string
	Status          string
	Processed       string
}

// NewAnalysisRow flattens an analysis into a sheet row. A nil analysis or a
// non-nil err produce an error row.
func NewAnalysisRow(file string, analysis *models.AnalysisResult, err error, processed time.Time) AnalysisRow {
	row := AnalysisRow{
		File:      file,
		Processed: processed.Format(ProcessedLayout),
	}

	switch {
	case err != nil:
		row.Status = "error"
		row.Summary = fmt.Sprintf("Error: %v", err)
		return row
	case analysis == nil:
		row.Status = "error"
		row.Summary = "Error: no analysis"
		return row
	}

	row.Date = analysis.AnalysisDate
	row.RiskLevel = string(analysis.RiskLevel)
	row.Summary = analysis.Summary
	row.Parameters = readingsDigest(analysis.Parameters)
	row.Recommendations = strings.Join(analysis.Recommendations, "\n")

	abnormal := make([]models.ParameterReading, 0, len(analysis.Abnormalities))
	for _, a := range analysis.Abnormalities {
		abnormal = append(abnormal, a.ParameterReading)
	}
	row.Abnormalities = readingsDigest(abnormal)

	if analysis.Degraded() {
		row.Status = "degraded"
		row.Summary = analysis.Error
	} else {
		row.Status = "ok"
	}
	return row
}

// readingsDigest renders "Glucose 150 mg/dL (critical); ..." for a cell.
func readingsDigest(readings []models.ParameterReading) string {
	parts := make([]string, 0, len(readings))
	for _, r := range readings {
		parts = append(parts, fmt.Sprintf("%s %s %s (%s)", r.Name, strconv.FormatFloat(r.Value, 'f', -1, 64), r.Unit, r.Status))
	}
	return strings.Join(parts, "; ")
}

// Values returns the row as sheet cell values.
func (r AnalysisRow) Values() []interface{} {
	return []interface{}{
		r.File,            // A
		r.Date,            // B
		r.RiskLevel,       // C
		r.Summary,         // D
		r.Parameters,      // E
		r.Abnormalities,   // F
		r.Recommendations, // G
		r.Status,          // H
		r.Processed,       // I
	}
}

func headerValues() []interface{} {
	values := make([]interface{}, len(Headers))
	for i, h := range Headers {
		values[i] = h
	}
	return values
}

func lastColumn() string {
	return string(rune('A' + len(Headers) - 1))
}

func columnRange(sheetName string) string {
	return fmt.Sprintf("%s!A:%s", sheetName, lastColumn())
}

func headerRange(sheetName string) string {
	return fmt.Sprintf("%s!A1:%s1", sheetName, lastColumn())
}
