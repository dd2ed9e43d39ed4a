package pipeline

import (
	"io"

	"github.com/goccy/go-json"

	"medscan/internal/insights"
	"medscan/pkg/models"
)

// Event statuses, in the order a successful run emits them. Each insight
// provider adds "<provider>_complete" between analysis and completion.
const (
	StatusStarting         = "starting"
	StatusOCRComplete      = "ocr_complete"
	StatusAnalysisComplete = "analysis_complete"
	StatusComplete         = "complete"
	StatusError            = "error"
)

// Event is one progress notification of a run.
type Event struct {
	Status        string                 `json:"status"`
	Message       string                 `json:"message,omitempty"`
	ExtractedText *string                `json:"extracted_text,omitempty"`
	Analysis      *models.AnalysisResult `json:"analysis_result,omitempty"`
	Insight       *insights.Result       `json:"insight,omitempty"`
	Response      *Report                `json:"response,omitempty"`
}

// EmitFunc receives progress events. It is called from the goroutine running
// the pipeline.
type EmitFunc func(Event)

// ProviderStatus is the status emitted when provider has answered.
func ProviderStatus(provider string) string {
	return provider + "_complete"
}

// NDJSONWriter returns an EmitFunc writing one JSON object per line to w.
// Encoding errors are reported through onError when it is not nil.
func NDJSONWriter(w io.Writer, onError func(error)) EmitFunc {
	enc := json.NewEncoder(w)
	return func(e Event) {
		if err := enc.Encode(e); err != nil && onError != nil {
			onError(err)
		}
	}
}
