// Package validation checks uploads, languages and extracted text before analysis.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxUploadBytes is the largest accepted upload.
	MaxUploadBytes = 10 * 1024 * 1024

	// MinTextChars and MaxTextChars bound usable extracted text.
	MinTextChars = 10
	MaxTextChars = 50000

	// MinMedicalKeywords is how many keywords make text look medical.
	MinMedicalKeywords = 3
)

var (
	// ErrInvalidUpload is returned for uploads that fail validation.
	ErrInvalidUpload = errors.New("invalid upload")

	// ErrUnsupportedLanguage is returned for languages outside SupportedLanguages.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrInsufficientText is returned when too little text was extracted.
	ErrInsufficientText = errors.New("insufficient text content extracted")

	// ErrTextTooLarge is returned when the extracted text is too long.
	ErrTextTooLarge = errors.New("text content too large")
)

// SupportedLanguages are the accepted analysis languages.
var SupportedLanguages = []string{"en", "hi", "es", "fr", "de"}

// AllowedExtensions are the accepted upload extensions.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "pdf"}

var medicalKeywords = []string{
	"patient", "diagnosis", "symptoms", "treatment", "medication",
	"blood", "pressure", "glucose", "cholesterol", "hemoglobin",
	"doctor", "hospital", "clinic", "lab", "test", "result",
	"normal", "abnormal", "mg/dl", "mmhg", "g/dl",
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("report_file", validateReportFile); err != nil {
		panic(fmt.Sprintf("validation: register report_file: %v", err))
	}
	if err := validate.RegisterValidation("language", validateLanguage); err != nil {
		panic(fmt.Sprintf("validation: register language: %v", err))
	}
}

// Upload describes a document submitted for analysis.
type Upload struct {
	Filename string `validate:"required,report_file"`
	Size     int64  `validate:"gt=0,max=10485760"`
	MimeType string `validate:"omitempty,oneof=image/jpeg image/jpg image/png application/pdf"`
	Language string `validate:"omitempty,language"`
}

var validationMessages = map[string]string{
	"required":    "is required",
	"report_file": "must be one of: png, jpg, jpeg, pdf",
	"gt":          "must not be empty",
	"max":         "exceeds the maximum size of 10MB",
	"oneof":       "must be one of: %s",
	"language":    "must be one of: en, hi, es, fr, de",
}

// ValidateUpload checks an upload and returns a readable error.
func ValidateUpload(u Upload) error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUpload, FormatValidationErrors(err))
	}
	return nil
}

// ValidateLanguage checks that lang is supported. An empty language is accepted
// and means the default.
func ValidateLanguage(lang string) error {
	if lang == "" || isSupportedLanguage(lang) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
}

// ValidateText checks that enough text was extracted to analyse. Limits count
// characters, not bytes.
func ValidateText(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextChars {
		return ErrInsufficientText
	}
	if utf8.RuneCountInString(text) > MaxTextChars {
		return ErrTextTooLarge
	}
	return nil
}

// IsMedicalDocument reports whether text contains at least MinMedicalKeywords
// distinct medical keywords.
func IsMedicalDocument(text string) bool {
	lower := strings.ToLower(text)
	count := 0
	for _, keyword := range medicalKeywords {
		if strings.Contains(lower, keyword) {
			count++
		}
	}
	return count >= MinMedicalKeywords
}

// FormatFileSize renders a byte count as B, KB, MB or GB with one decimal.
func FormatFileSize(size int64) string {
	if size == 0 {
		return "0B"
	}

	units := []string{"B", "KB", "MB", "GB"}
	value := float64(size)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.1f%s", value, units[i])
}

// FormatValidationErrors joins validator errors into one readable line.
func FormatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		message, ok := validationMessages[fe.Tag()]
		if !ok {
			message = "is invalid"
		}
		if fe.Tag() == "oneof" {
			message = fmt.Sprintf(message, strings.Join(strings.Fields(fe.Param()), ", "))
		}
		messages = append(messages, strings.ToLower(fe.Field())+" "+message)
	}
	return strings.Join(messages, ", ")
}

func validateReportFile(fl validator.FieldLevel) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fl.Field().String())), ".")
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func validateLanguage(fl validator.FieldLevel) bool {
	return isSupportedLanguage(fl.Field().String())
}

func isSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if lang == l {
			return true
		}
	}
	return false
}
