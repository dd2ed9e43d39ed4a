package models

// Status is the classification of a single reading against its reference range.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusLow      Status = "low"
	StatusHigh     Status = "high"
	StatusCritical Status = "critical"
)

// Severity returns the rank used to order statuses: normal=0, low=1, high=2, critical=3.
func (s Status) Severity() int {
	switch s {
	case StatusLow:
		return 1
	case StatusHigh:
		return 2
	case StatusCritical:
		return 3
	default:
		return 0
	}
}

// RiskLevel is the aggregate judgement over all abnormalities of one analysis.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
	RiskUnknown  RiskLevel = "unknown"
)

// ParameterReading is one clinical value extracted from a report.
type ParameterReading struct {
	Name        string  `json:"name" bson:"name"`                 // Display name, e.g. "Glucose" or "Systolic BP"
	Value       float64 `json:"value" bson:"value"`               // Numeric measurement
	Unit        string  `json:"unit" bson:"unit"`                 // Display unit, e.g. "mg/dL"
	Status      Status  `json:"status" bson:"status"`             // Derived from Value and the reference range
	NormalRange string  `json:"normal_range" bson:"normal_range"` // Display string of the reference band
}

// Abnormality is a reading outside its normal range together with its severity rank.
type Abnormality struct {
	ParameterReading
	Severity int `json:"severity"`
}

// AnalysisResult is the outcome of analysing one document's text.
type AnalysisResult struct {
	Parameters      []ParameterReading `json:"parameters"`
	Abnormalities   []Abnormality      `json:"abnormalities"`
	Summary         string             `json:"summary"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	Recommendations []string           `json:"recommendations"`
	AnalysisDate    string             `json:"analysis_date,omitempty"` // ISO-8601 UTC with trailing Z
	Error           string             `json:"error,omitempty"`         // Set only on degraded results
}

// Degraded reports whether the analysis could not be completed.
func (r *AnalysisResult) Degraded() bool {
	return r.Error != ""
}

// NormalCount returns how many parameters are within their normal range.
func (r *AnalysisResult) NormalCount() int {
	count := 0
	for _, p := range r.Parameters {
		if p.Status == StatusNormal {
			count++
		}
	}
	return count
}
