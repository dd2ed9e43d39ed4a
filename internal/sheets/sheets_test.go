package sheets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"medscan/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"edit url", "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0", "1AbC-dEf_123", false},
		{"bare url", "https://docs.google.com/spreadsheets/d/xyz", "xyz", false},
		{"not a sheet", "https://example.com/doc/1", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractSpreadsheetID(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("id = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewAnalysisRow(t *testing.T) {
	processed := time.Date(2024, 3, 5, 10, 11, 12, 0, time.UTC)
	glucose := models.ParameterReading{Name: "Glucose", Value: 150, Unit: "mg/dL", Status: models.StatusCritical, NormalRange: "70-100 mg/dL"}
	hemoglobin := models.ParameterReading{Name: "Hemoglobin", Value: 13.5, Unit: "g/dL", Status: models.StatusNormal, NormalRange: "12-16 g/dL"}
	analysis := &models.AnalysisResult{
		Parameters:      []models.ParameterReading{hemoglobin, glucose},
		Abnormalities:   []models.Abnormality{{ParameterReading: glucose, Severity: 3}},
		Summary:         "Analyzed 2 parameters.",
		RiskLevel:       models.RiskCritical,
		Recommendations: []string{"first", "second"},
		AnalysisDate:    "2024-03-05T10:11:12.000000Z",
	}

	row := NewAnalysisRow("cbc.pdf", analysis, nil, processed)

	want := AnalysisRow{
		File:            "cbc.pdf",
		Date:            "2024-03-05T10:11:12.000000Z",
		RiskLevel:       "critical",
		Summary:         "Analyzed 2 parameters.",
		Parameters:      "Hemoglobin 13.5 g/dL (normal); Glucose 150 mg/dL (critical)",
		Abnormalities:   "Glucose 150 mg/dL (critical)",
		Recommendations: "first\nsecond",
		Status:          "ok",
		Processed:       "2024-03-05 10:11:12",
	}
	if row != want {
		t.Errorf("row = %+v\nwant  %+v", row, want)
	}
	if got := len(row.Values()); got != len(Headers) {
		t.Errorf("len(Values) = %d, want %d", got, len(Headers))
	}
}

func TestNewAnalysisRowErrors(t *testing.T) {
	now := time.Now()

	row := NewAnalysisRow("a.png", nil, errors.New("ocr failed"), now)
	if row.Status != "error" || row.Summary != "Error: ocr failed" {
		t.Errorf("error row = %+v", row)
	}

	degraded := &models.AnalysisResult{RiskLevel: models.RiskUnknown, Summary: "Analysis could not be completed", Error: "Analysis failed: boom"}
	row = NewAnalysisRow("b.png", degraded, nil, now)
	if row.Status != "degraded" || row.Summary != "Analysis failed: boom" || row.RiskLevel != "unknown" {
		t.Errorf("degraded row = %+v", row)
	}
}

func TestRanges(t *testing.T) {
	if got := columnRange("Analyses"); got != "Analyses!A:I" {
		t.Errorf("columnRange = %s", got)
	}
	if got := headerRange("Analyses"); got != "Analyses!A1:I1" {
		t.Errorf("headerRange = %s", got)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_CREDENTIALS", "")

	inline := `{"type":"service_account"}`
	if got, err := loadCredentials(inline); err != nil || string(got) != inline {
		t.Errorf("inline key = %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, []byte(inline), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, err := loadCredentials(path); err != nil || string(got) != inline {
		t.Errorf("key file = %q, %v", got, err)
	}

	if _, err := loadCredentials(""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("no key: err = %v, want ErrMissingCredentials", err)
	}

	t.Setenv("GOOGLE_CREDENTIALS", inline)
	if got, err := loadCredentials(""); err != nil || !strings.Contains(string(got), "service_account") {
		t.Errorf("env key = %q, %v", got, err)
	}
}
