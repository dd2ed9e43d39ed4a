package analysis

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"medscan/pkg/models"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 10, 11, 12, 123456000, time.UTC)
}

func TestClassifierGlucoseBoundaries(t *testing.T) {
	c := NewClassifier(DefaultReferenceTable())

	tests := []struct {
		value float64
		want  models.Status
	}{
		{69.9, models.StatusLow},
		{48.9, models.StatusCritical},
		{100.1, models.StatusHigh},
		{130.1, models.StatusCritical},
		{85, models.StatusNormal},
		{70, models.StatusNormal},
		{100, models.StatusNormal},
	}

	for _, tt := range tests {
		if got := c.Status("glucose", tt.value); got != tt.want {
			t.Errorf("Status(glucose, %v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestClassifierUnknownParameterIsNormal(t *testing.T) {
	c := NewClassifier(DefaultReferenceTable())

	for _, v := range []float64{-1000, 0, 1e9} {
		if got := c.Status("ferritin", v); got != models.StatusNormal {
			t.Errorf("Status(ferritin, %v) = %s, want normal", v, got)
		}
	}
}

func TestExtractionDeterminism(t *testing.T) {
	a := Default(WithClock(fixedClock))

	result := a.Analyze("Glucose: 150 mg/dl, BP: 130/85 mmHg", "en")
	if result.Degraded() {
		t.Fatalf("unexpected degraded result: %s", result.Error)
	}

	want := []models.ParameterReading{
		{Name: "Glucose", Value: 150, Unit: "mg/dL", Status: models.StatusCritical, NormalRange: "70-100 mg/dL"},
		{Name: "Systolic BP", Value: 130, Unit: "mmHg", Status: models.StatusHigh, NormalRange: "90-120 mmHg"},
		{Name: "Diastolic BP", Value: 85, Unit: "mmHg", Status: models.StatusHigh, NormalRange: "60-80 mmHg"},
	}
	if !reflect.DeepEqual(result.Parameters, want) {
		t.Fatalf("parameters = %+v, want %+v", result.Parameters, want)
	}
	if result.RiskLevel != models.RiskCritical {
		t.Errorf("risk level = %s, want critical", result.RiskLevel)
	}
}

func TestBloodPressureAlwaysPaired(t *testing.T) {
	e := NewExtractor(DefaultPatterns())

	texts := []string{
		"BP: 120/80 mmHg",
		"bp 140/95mmhg and later bp: 110/70 mmhg",
		"Blood Pressure: 85/55 mmHg",
	}

	for _, text := range texts {
		drafts, err := e.Extract(text)
		if err != nil {
			t.Fatalf("Extract(%q) returned error: %v", text, err)
		}
		if len(drafts)%2 != 0 {
			t.Fatalf("Extract(%q) returned %d drafts, want pairs", text, len(drafts))
		}
		for i := 0; i < len(drafts); i += 2 {
			if drafts[i].Name != "Systolic BP" || drafts[i+1].Name != "Diastolic BP" {
				t.Errorf("Extract(%q) pair %d = %s/%s", text, i/2, drafts[i].Name, drafts[i+1].Name)
			}
		}
	}
}

func TestExtractKeepsDuplicateMatches(t *testing.T) {
	e := NewExtractor(DefaultPatterns())

	drafts, err := e.Extract("Blood Sugar: 90 mg/dl")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2 (sugar and blood sugar patterns)", len(drafts))
	}
	for _, d := range drafts {
		if d.Name != "Glucose" || d.Value != 90 {
			t.Errorf("unexpected draft %+v", d)
		}
	}
}

func TestExtractOrdering(t *testing.T) {
	e := NewExtractor(DefaultPatterns())

	text := "Urea: 30 mg/dl. Hemoglobin: 11.2 g/dl. Glucose: 95 mg/dl. Glucose: 99 mg/dl"
	drafts, err := e.Extract(text)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	var got []string
	for _, d := range drafts {
		got = append(got, d.Name)
	}
	want := []string{"Hemoglobin", "Glucose", "Glucose", "Urea"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if drafts[1].Value != 95 || drafts[2].Value != 99 {
		t.Errorf("glucose values = %v, %v; want text order 95, 99", drafts[1].Value, drafts[2].Value)
	}
}

func TestExtractNoMatches(t *testing.T) {
	e := NewExtractor(DefaultPatterns())

	for _, text := range []string{"", "patient feels fine", "glucose normal"} {
		drafts, err := e.Extract(text)
		if err != nil {
			t.Fatalf("Extract(%q) returned error: %v", text, err)
		}
		if drafts == nil || len(drafts) != 0 {
			t.Errorf("Extract(%q) = %v, want empty non-nil slice", text, drafts)
		}
	}
}

func TestExtractSkipsUnparseableMatches(t *testing.T) {
	patterns := NewPatternDictionary(ExtractionRule{
		Key:     "glucose",
		Pattern: regexp.MustCompile(`(?i)value[:\s]*([\d.]+)`),
		Targets: []Target{{Key: "glucose", Name: "Glucose"}},
	})
	e := NewExtractor(patterns)

	drafts, err := e.Extract("value: 1.2.3 and value: 90")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Value != 90 {
		t.Fatalf("drafts = %+v, want single value 90", drafts)
	}
}

func TestAssessRisk(t *testing.T) {
	ab := func(statuses ...models.Status) []models.Abnormality {
		out := make([]models.Abnormality, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, models.Abnormality{
				ParameterReading: models.ParameterReading{Name: "X", Status: s},
				Severity:         s.Severity(),
			})
		}
		return out
	}

	tests := []struct {
		name string
		in   []models.Abnormality
		want models.RiskLevel
	}{
		{"none", nil, models.RiskLow},
		{"one critical", ab(models.StatusLow, models.StatusCritical), models.RiskCritical},
		{"three high", ab(models.StatusHigh, models.StatusHigh, models.StatusHigh), models.RiskHigh},
		{"two high", ab(models.StatusHigh, models.StatusHigh), models.RiskMedium},
		{"one high", ab(models.StatusHigh, models.StatusLow), models.RiskMedium},
		{"only low", ab(models.StatusLow, models.StatusLow, models.StatusLow, models.StatusLow), models.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssessRisk(tt.in); got != tt.want {
				t.Errorf("AssessRisk = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCollectAbnormalities(t *testing.T) {
	readings := []models.ParameterReading{
		{Name: "A", Status: models.StatusNormal},
		{Name: "B", Status: models.StatusCritical},
		{Name: "C", Status: models.StatusLow},
		{Name: "D", Status: models.StatusHigh},
	}

	got := CollectAbnormalities(readings)
	if len(got) != 3 {
		t.Fatalf("got %d abnormalities, want 3", len(got))
	}

	wantNames := []string{"B", "C", "D"}
	wantSeverity := []int{3, 1, 2}
	for i, a := range got {
		if a.Name != wantNames[i] || a.Severity != wantSeverity[i] {
			t.Errorf("abnormality %d = %s/%d, want %s/%d", i, a.Name, a.Severity, wantNames[i], wantSeverity[i])
		}
	}
}

func TestRecommendationsEmpty(t *testing.T) {
	got := GenerateRecommendations(nil, "en")
	if len(got) != 1 || got[0] != healthyLifestyleAdvice {
		t.Fatalf("recommendations = %v, want only the healthy lifestyle line", got)
	}
}

func TestRecommendationsCap(t *testing.T) {
	abnormalities := []models.Abnormality{
		{ParameterReading: models.ParameterReading{Name: "Hemoglobin", Status: models.StatusLow}},
		{ParameterReading: models.ParameterReading{Name: "Glucose", Status: models.StatusHigh}},
		{ParameterReading: models.ParameterReading{Name: "Cholesterol", Status: models.StatusCritical}},
		{ParameterReading: models.ParameterReading{Name: "Systolic BP", Status: models.StatusHigh}},
	}

	got := GenerateRecommendations(abnormalities, "hi")
	if len(got) != MaxRecommendations {
		t.Fatalf("got %d recommendations, want %d", len(got), MaxRecommendations)
	}
	if !strings.HasPrefix(got[0], "Consider iron-rich foods") {
		t.Errorf("first recommendation = %q, want hemoglobin advice", got[0])
	}
	if got[3] != "Monitor blood pressure regularly. Reduce sodium intake and manage stress." {
		t.Errorf("fourth recommendation = %q, want blood pressure advice", got[3])
	}
	if got[4] != consultProviderAdvice {
		t.Errorf("last recommendation = %q, want %q", got[4], consultProviderAdvice)
	}
}

func TestRecommendationsUnmatchedStillCloses(t *testing.T) {
	abnormalities := []models.Abnormality{
		{ParameterReading: models.ParameterReading{Name: "Urea", Status: models.StatusHigh}},
		{ParameterReading: models.ParameterReading{Name: "Cholesterol", Status: models.StatusLow}},
	}

	got := GenerateRecommendations(abnormalities, "en")
	want := []string{consultProviderAdvice, checkupAdvice}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("recommendations = %v, want %v", got, want)
	}
}

func TestComposeSummary(t *testing.T) {
	normal := models.ParameterReading{Status: models.StatusNormal}
	high := models.ParameterReading{Status: models.StatusHigh}

	if got := ComposeSummary([]models.ParameterReading{normal, normal, normal, normal}); got != "All 4 parameters are within normal ranges." {
		t.Errorf("all normal summary = %q", got)
	}
	if got := ComposeSummary([]models.ParameterReading{normal, high, normal, normal}); got != "Out of 4 parameters, 3 are normal and 1 require attention." {
		t.Errorf("mixed summary = %q", got)
	}
	if got := ComposeSummary(nil); got != "All 0 parameters are within normal ranges." {
		t.Errorf("empty summary = %q", got)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	a := Default(WithClock(fixedClock))
	text := "Hemoglobin: 10.1 g/dl, Total Cholesterol: 260 mg/dl, BP 150/100 mmHg, Urea 12 mg/dl"

	first := a.Analyze(text, "en")
	second := a.Analyze(text, "en")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeConcurrent(t *testing.T) {
	a := Default(WithClock(fixedClock))
	text := "Glucose: 180 mg/dl. Creatinine: 1.0 mg/dl. Bilirubin: 2.1 mg/dl"
	want := a.Analyze(text, "en")

	var wg sync.WaitGroup
	results := make([]models.AnalysisResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Analyze(text, "en")
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("result %d differs from sequential result", i)
		}
	}
}

func TestAnalyzeTimestamp(t *testing.T) {
	a := Default(WithClock(fixedClock))

	result := a.Analyze("nothing here", "")
	if result.AnalysisDate != "2024-03-05T10:11:12.123456Z" {
		t.Errorf("analysis date = %q", result.AnalysisDate)
	}
	if result.RiskLevel != models.RiskLow || len(result.Parameters) != 0 {
		t.Errorf("unexpected result for empty text: %+v", result)
	}
	if len(result.Recommendations) != 1 {
		t.Errorf("recommendations = %v, want single healthy lifestyle line", result.Recommendations)
	}
}

func TestAnalyzeDegradesOnMalformedRule(t *testing.T) {
	patterns := NewPatternDictionary(ExtractionRule{
		Key:     "blood_pressure",
		Pattern: regexp.MustCompile(`(?i)bp[:\s]*(\d+)\s*mmhg`),
		Targets: []Target{
			{Key: "systolic_bp", Name: "Systolic BP"},
			{Key: "diastolic_bp", Name: "Diastolic BP"},
		},
	})
	a := NewAnalyzer(DefaultReferenceTable(), patterns, WithClock(fixedClock))

	result := a.Analyze("BP: 120 mmHg", "en")
	if !result.Degraded() {
		t.Fatalf("expected degraded result, got %+v", result)
	}
	if result.RiskLevel != models.RiskUnknown {
		t.Errorf("risk level = %s, want unknown", result.RiskLevel)
	}
	if result.Summary != DegradedSummary {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Parameters) != 0 || len(result.Abnormalities) != 0 || len(result.Recommendations) != 0 {
		t.Errorf("degraded result carries partial findings: %+v", result)
	}
	if !strings.HasPrefix(result.Error, "Analysis failed: ") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestExtractReturnsMalformedRuleError(t *testing.T) {
	e := NewExtractor(NewPatternDictionary(ExtractionRule{Key: "glucose"}))

	_, err := e.Extract("glucose 90 mg/dl")
	if !errors.Is(err, ErrMalformedRule) {
		t.Fatalf("err = %v, want ErrMalformedRule", err)
	}

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) || analysisErr.Op != "Extract" {
		t.Errorf("err = %v, want AnalysisError for Extract", err)
	}
}

func TestUnknownParameterReading(t *testing.T) {
	patterns := NewPatternDictionary(ExtractionRule{
		Key:     "ferritin",
		Pattern: regexp.MustCompile(`(?i)ferritin[:\s]*(\d+)`),
		Targets: []Target{{Key: "ferritin", Name: DisplayName("ferritin")}},
	})
	a := NewAnalyzer(DefaultReferenceTable(), patterns, WithClock(fixedClock))

	result := a.Analyze("Ferritin: 900", "en")
	if len(result.Parameters) != 1 {
		t.Fatalf("parameters = %+v, want one reading", result.Parameters)
	}
	p := result.Parameters[0]
	if p.Status != models.StatusNormal || p.NormalRange != "N/A" || p.Unit != "" {
		t.Errorf("unknown parameter reading = %+v", p)
	}
	if len(result.Abnormalities) != 0 {
		t.Errorf("unknown parameter flagged: %+v", result.Abnormalities)
	}
}

func TestDefaultPatternsAreValid(t *testing.T) {
	if err := DefaultPatterns().Validate(); err != nil {
		t.Fatalf("default patterns invalid: %v", err)
	}
	if got := DisplayName("blood_urea"); got != "Blood Urea" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestRangeStringDropsTrailingZeros(t *testing.T) {
	table := DefaultReferenceTable()

	tests := []struct {
		key  string
		want string
	}{
		{"hemoglobin", "12-16 g/dL"},
		{"creatinine", "0.6-1.2 mg/dL"},
		{"glucose", "70-100 mg/dL"},
		{"unknown", "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := table.RangeString(tt.key); got != tt.want {
				t.Errorf("RangeString(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
