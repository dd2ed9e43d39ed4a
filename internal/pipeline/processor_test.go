package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"medscan/internal/analysis"
	"medscan/internal/insights"
	"medscan/internal/ocr"
	"medscan/internal/sheets"
	"medscan/internal/validation"
	"medscan/pkg/models"
)

const reportText = "Patient lab result. Glucose: 150 mg/dl, BP: 130/85 mmHg, Hemoglobin: 13.5 g/dl"

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) ExtractText(ctx context.Context, doc ocr.Document) (*ocr.OCRResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ocr.OCRResult{Text: f.text, Source: "vision"}, nil
}

type fakeCollector struct {
	providers []string
}

func (f *fakeCollector) Collect(ctx context.Context, text string, a *models.AnalysisResult) []insights.Result {
	results := make([]insights.Result, 0, len(f.providers))
	for _, p := range f.providers {
		results = append(results, insights.Result{Provider: p, Insight: models.Insight{Source: p, RawResponse: "commentary from " + p}})
	}
	return results
}

type fakeRepository struct {
	saved []models.MedicalRecord
	err   error
}

func (f *fakeRepository) Create(ctx context.Context, record *models.MedicalRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, *record)
	record.ID = "65f0c0ffee0000000000abcd"
	return record.ID, nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id string) (*models.MedicalRecord, error) {
	return nil, nil
}

func (f *fakeRepository) FindRecent(ctx context.Context, limit int) ([]models.MedicalRecord, error) {
	return f.saved, nil
}

type fakeExporter struct {
	sheet string
	rows  []sheets.AnalysisRow
}

func (f *fakeExporter) AppendAnalyses(ctx context.Context, sheetName string, rows []sheets.AnalysisRow) error {
	f.sheet = sheetName
	f.rows = append(f.rows, rows...)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 10, 11, 12, 0, time.UTC)
}

func pngDocument() ocr.Document {
	return ocr.Document{Name: "blood_test.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\nfake")}
}

func statuses(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Status)
	}
	return out
}

func TestRunEmitsEventsInOrder(t *testing.T) {
	repo := &fakeRepository{}
	exporter := &fakeExporter{}
	p := NewProcessor(
		&fakeOCR{text: reportText},
		analysis.Default(analysis.WithClock(fixedClock)),
		WithInsights(&fakeCollector{providers: []string{"gemini", "hf"}}),
		WithRecords(repo),
		WithExporter(exporter, "Analyses"),
		WithClock(fixedClock),
	)

	var events []Event
	report, err := p.Run(context.Background(), Request{
		Document: pngDocument(),
		Language: "en",
		Insights: true,
		Save:     true,
		Export:   true,
	}, func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{"starting", "ocr_complete", "analysis_complete", "gemini_complete", "hf_complete", "complete"}
	if got := statuses(events); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	if events[len(events)-1].Response != report {
		t.Errorf("complete event does not carry the report")
	}

	if !report.Success || !report.MedicalDocument || report.OCRSource != "vision" {
		t.Errorf("report = %+v", report)
	}
	if report.Analysis.RiskLevel != models.RiskCritical {
		t.Errorf("risk = %s, want critical", report.Analysis.RiskLevel)
	}
	if report.Timestamp != "2024-03-05T10:11:12.000000Z" {
		t.Errorf("timestamp = %s", report.Timestamp)
	}
	if report.RecordID != "65f0c0ffee0000000000abcd" || len(repo.saved) != 1 {
		t.Fatalf("record id = %q, saved = %d", report.RecordID, len(repo.saved))
	}
	if saved := repo.saved[0]; saved.Title != "blood_test" || len(saved.Insights) != 2 {
		t.Errorf("saved record = %+v", saved)
	}
	if exporter.sheet != "Analyses" || len(exporter.rows) != 1 || exporter.rows[0].Status != "ok" {
		t.Errorf("export = %s %+v", exporter.sheet, exporter.rows)
	}
}

func TestRunWithoutOptionalStages(t *testing.T) {
	p := NewProcessor(&fakeOCR{text: reportText}, analysis.Default(), WithInsights(&fakeCollector{providers: []string{"gemini"}}))

	var events []Event
	report, err := p.Run(context.Background(), Request{Document: pngDocument()}, func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.Join(statuses(events), ","); got != "starting,ocr_complete,analysis_complete,complete" {
		t.Errorf("statuses = %s", got)
	}
	if report.Insights != nil || report.RecordID != "" {
		t.Errorf("report = %+v", report)
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name    string
		ocr     *fakeOCR
		req     Request
		opts    []Option
		wantErr error
		events  string
	}{
		{
			name:    "unsupported upload",
			ocr:     &fakeOCR{text: reportText},
			req:     Request{Document: ocr.Document{Name: "notes.docx", Data: []byte("x")}},
			wantErr: validation.ErrInvalidUpload,
			events:  "error",
		},
		{
			name:    "ocr failure",
			ocr:     &fakeOCR{err: ocr.ErrOCRFailed},
			req:     Request{Document: pngDocument()},
			wantErr: ocr.ErrOCRFailed,
			events:  "starting,error",
		},
		{
			name:    "text too large",
			ocr:     &fakeOCR{text: strings.Repeat("glucose ", validation.MaxTextChars)},
			req:     Request{Document: pngDocument()},
			wantErr: validation.ErrTextTooLarge,
			events:  "starting,ocr_complete,error",
		},
		{
			name:    "save without repository",
			ocr:     &fakeOCR{text: reportText},
			req:     Request{Document: pngDocument(), Save: true},
			wantErr: ErrRecordsDisabled,
			events:  "error",
		},
		{
			name:   "save fails",
			ocr:    &fakeOCR{text: reportText},
			req:    Request{Document: pngDocument(), Save: true},
			opts:   []Option{WithRecords(&fakeRepository{err: errors.New("connection refused")})},
			events: "starting,ocr_complete,analysis_complete,error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(tt.ocr, analysis.Default(), tt.opts...)

			var events []Event
			report, err := p.Run(context.Background(), tt.req, func(e Event) { events = append(events, e) })
			if err == nil || report != nil {
				t.Fatalf("Run = %+v, %v; want an error", report, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if got := strings.Join(statuses(events), ","); got != tt.events {
				t.Errorf("statuses = %s, want %s", got, tt.events)
			}
			if last := events[len(events)-1]; !strings.HasPrefix(last.Message, "Processing failed: ") {
				t.Errorf("error message = %q", last.Message)
			}
		})
	}
}

func TestRunAcceptsShortText(t *testing.T) {
	p := NewProcessor(&fakeOCR{text: ""}, analysis.Default())

	report, err := p.Run(context.Background(), Request{Document: pngDocument()}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Analysis.Parameters) != 0 || report.MedicalDocument {
		t.Errorf("report = %+v", report)
	}
}

func TestNDJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	emit := NDJSONWriter(&buf, nil)

	text := "Glucose: 90"
	emit(Event{Status: StatusStarting, Message: "Starting analysis..."})
	emit(Event{Status: StatusOCRComplete, ExtractedText: &text})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}

	var second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if second["status"] != "ocr_complete" || second["extracted_text"] != "Glucose: 90" {
		t.Errorf("event = %v", second)
	}
	if _, ok := second["message"]; ok {
		t.Errorf("empty message was encoded: %v", second)
	}
}
