// Package records stores analysed medical documents.
package records

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"medscan/pkg/models"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidID is returned for ids that are not record identifiers.
	ErrInvalidID = errors.New("invalid record id")

	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = errors.New("invalid record")
)

var validate = validator.New()

// Source describes the document a record is built from.
type Source struct {
	Name     string
	MimeType string
	Size     int64
	Language string
}

// NewLabReportRecord builds a lab report record from one analysis run.
func NewLabReportRecord(src Source, analysis models.AnalysisResult, insights []models.Insight, now time.Time) models.MedicalRecord {
	now = now.UTC()

	title := strings.TrimSuffix(filepath.Base(src.Name), filepath.Ext(src.Name))
	if title == "" || title == "." {
		title = "Lab report"
	}

	record := models.MedicalRecord{
		Title:           title,
		Description:     analysis.Summary,
		RecordType:      models.RecordLabReport,
		Date:            now,
		Language:        src.Language,
		Parameters:      analysis.Parameters,
		Summary:         analysis.Summary,
		RiskLevel:       analysis.RiskLevel,
		Recommendations: analysis.Recommendations,
		Notes:           analysis.Error,
		IsPrivate:       true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if src.Name != "" {
		record.Attachments = []models.Attachment{{
			Filename:     filepath.Base(src.Name),
			OriginalName: src.Name,
			MimeType:     src.MimeType,
			Size:         src.Size,
			UploadDate:   now,
		}}
	}
	for _, insight := range insights {
		if insight.OK() {
			record.Insights = append(record.Insights, insight)
		}
	}
	return record
}

// Validate checks the required fields of a record.
func Validate(record *models.MedicalRecord) error {
	if err := validate.Struct(record); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}
