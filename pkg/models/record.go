package models

import "time"

// RecordType classifies a stored medical record.
type RecordType string

const (
	RecordLabReport    RecordType = "lab_report"
	RecordPrescription RecordType = "prescription"
	RecordDiagnosis    RecordType = "diagnosis"
	RecordImaging      RecordType = "imaging"
	RecordVaccination  RecordType = "vaccination"
	RecordOther        RecordType = "other"
)

// Attachment describes the source document a record was created from.
type Attachment struct {
	Filename     string    `json:"filename" bson:"filename"`
	OriginalName string    `json:"original_name" bson:"original_name"`
	MimeType     string    `json:"mimetype" bson:"mimetype"`
	Size         int64     `json:"size" bson:"size"`
	UploadDate   time.Time `json:"upload_date" bson:"upload_date"`
}

// MedicalRecord is one persisted analysis of a patient document.
type MedicalRecord struct {
	ID              string             `json:"id" bson:"-"`
	Title           string             `json:"title" bson:"title" validate:"required"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	RecordType      RecordType         `json:"record_type" bson:"record_type" validate:"required,oneof=lab_report prescription diagnosis imaging vaccination other"`
	Date            time.Time          `json:"date" bson:"date" validate:"required"`
	Language        string             `json:"language" bson:"language"`
	Attachments     []Attachment       `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Parameters      []ParameterReading `json:"parameters" bson:"parameters"`
	Summary         string             `json:"summary" bson:"summary"`
	RiskLevel       RiskLevel          `json:"risk_level" bson:"risk_level"`
	Recommendations []string           `json:"recommendations" bson:"recommendations"`
	Insights        []Insight          `json:"insights,omitempty" bson:"insights,omitempty"`
	Notes           string             `json:"notes,omitempty" bson:"notes,omitempty"`
	IsPrivate       bool               `json:"is_private" bson:"is_private"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
