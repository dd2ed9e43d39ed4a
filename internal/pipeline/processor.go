// Package pipeline runs a document through OCR, analysis, AI commentary and
// the optional record and sheet sinks, reporting progress as it goes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medscan/internal/analysis"
	"medscan/internal/insights"
	"medscan/internal/logger"
	"medscan/internal/ocr"
	"medscan/internal/records"
	"medscan/internal/sheets"
	"medscan/internal/validation"
	"medscan/pkg/models"
)

var (
	// ErrRecordsDisabled is returned when a save is requested without a repository.
	ErrRecordsDisabled = errors.New("record store not configured")

	// ErrExportDisabled is returned when an export is requested without an exporter.
	ErrExportDisabled = errors.New("sheet export not configured")
)

// Analyzer assesses extracted text.
type Analyzer interface {
	Analyze(text, language string) models.AnalysisResult
}

// InsightCollector asks every configured provider for commentary.
type InsightCollector interface {
	Collect(ctx context.Context, text string, analysis *models.AnalysisResult) []insights.Result
}

// Exporter appends analysis rows to a worksheet.
type Exporter interface {
	AppendAnalyses(ctx context.Context, sheetName string, rows []sheets.AnalysisRow) error
}

// Request is one document to process.
type Request struct {
	Document ocr.Document
	Language string
	Insights bool
	Save     bool
	Export   bool
}

// Report is the outcome of a successful run.
type Report struct {
	RunID           string                `json:"run_id"`
	Success         bool                  `json:"success"`
	ExtractedText   string                `json:"extracted_text"`
	OCRSource       string                `json:"ocr_source,omitempty"`
	Analysis        models.AnalysisResult `json:"analysis_result"`
	Insights        []insights.Result     `json:"insights,omitempty"`
	RecordID        string                `json:"record_id,omitempty"`
	Timestamp       string                `json:"timestamp"`
	MedicalDocument bool                  `json:"medical_document"`
}

// Processor wires the stages together. Insights, records and exporter are optional.
type Processor struct {
	ocr       ocr.Service
	analyzer  Analyzer
	insights  InsightCollector
	records   records.Repository
	exporter  Exporter
	sheetName string
	now       func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithInsights enables AI commentary.
func WithInsights(c InsightCollector) Option {
	return func(p *Processor) {
		p.insights = c
	}
}

// WithRecords enables saving results.
func WithRecords(r records.Repository) Option {
	return func(p *Processor) {
		p.records = r
	}
}

// WithExporter enables the sheet export to sheetName.
func WithExporter(e Exporter, sheetName string) Option {
	return func(p *Processor) {
		p.exporter = e
		p.sheetName = sheetName
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// NewProcessor creates a processor around an OCR service and an analyzer.
func NewProcessor(ocrService ocr.Service, analyzer Analyzer, opts ...Option) *Processor {
	p := &Processor{
		ocr:      ocrService,
		analyzer: analyzer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes req. Every failure emits an error event and is returned;
// otherwise the last event is "complete" carrying the report.
func (p *Processor) Run(ctx context.Context, req Request, emit EmitFunc) (*Report, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	runID := uuid.NewString()
	log := logger.WithRun("pipeline", runID)

	report, err := p.run(ctx, req, runID, emit, log)
	if err != nil {
		log.Error().
			Err(err).
			Str("document", req.Document.Name).
			Msg("Processing failed")
		emit(Event{Status: StatusError, Message: fmt.Sprintf("Processing failed: %v", err)})
		return nil, err
	}

	emit(Event{Status: StatusComplete, Response: report})
	return report, nil
}

func (p *Processor) run(ctx context.Context, req Request, runID string, emit EmitFunc, log zerolog.Logger) (*Report, error) {
	const op = "pipeline.Run"

	if err := p.validate(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	emit(Event{Status: StatusStarting, Message: "Starting analysis..."})
	log.Info().
		Str("document", req.Document.Name).
		Str("language", req.Language).
		Msg("Processing document")

	ocrResult, err := p.ocr.ExtractText(ctx, req.Document)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	text := ocrResult.Text
	emit(Event{Status: StatusOCRComplete, ExtractedText: &text})

	if err := validation.ValidateText(text); err != nil {
		if errors.Is(err, validation.ErrTextTooLarge) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Warn().Err(err).Int("text_length", len(text)).Msg("Little text extracted, continuing")
	}

	result := p.analyzer.Analyze(text, req.Language)
	emit(Event{Status: StatusAnalysisComplete, Analysis: &result})

	report := &Report{
		RunID:           runID,
		Success:         true,
		ExtractedText:   text,
		OCRSource:       ocrResult.Source,
		Analysis:        result,
		Timestamp:       p.now().UTC().Format(analysis.TimestampLayout),
		MedicalDocument: validation.IsMedicalDocument(text),
	}

	if req.Insights && p.insights != nil {
		report.Insights = p.insights.Collect(ctx, text, &result)
		for i := range report.Insights {
			r := report.Insights[i]
			emit(Event{Status: ProviderStatus(r.Provider), Insight: &r})
		}
	}

	if req.Save {
		id, err := p.save(ctx, req, report)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		report.RecordID = id
	}

	if req.Export {
		if err := p.export(ctx, req, report); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	log.Info().
		Str("risk_level", string(result.RiskLevel)).
		Int("parameters", len(result.Parameters)).
		Int("insights", len(report.Insights)).
		Str("record_id", report.RecordID).
		Msg("Processing completed")

	return report, nil
}

func (p *Processor) validate(req Request) error {
	upload := validation.Upload{
		Filename: req.Document.Name,
		Size:     int64(req.Document.Size()),
		MimeType: req.Document.ContentType,
		Language: req.Language,
	}
	if err := validation.ValidateUpload(upload); err != nil {
		return err
	}
	if req.Save && p.records == nil {
		return ErrRecordsDisabled
	}
	if req.Export && p.exporter == nil {
		return ErrExportDisabled
	}
	return nil
}

func (p *Processor) save(ctx context.Context, req Request, report *Report) (string, error) {
	found := make([]models.Insight, 0, len(report.Insights))
	for _, r := range report.Insights {
		found = append(found, r.Insight)
	}

	record := records.NewLabReportRecord(records.Source{
		Name:     req.Document.Name,
		MimeType: req.Document.MimeType(),
		Size:     int64(req.Document.Size()),
		Language: req.Language,
	}, report.Analysis, found, p.now())

	return p.records.Create(ctx, &record)
}

func (p *Processor) export(ctx context.Context, req Request, report *Report) error {
	row := sheets.NewAnalysisRow(req.Document.Name, &report.Analysis, nil, p.now())
	return p.exporter.AppendAnalyses(ctx, p.sheetName, []sheets.AnalysisRow{row})
}
