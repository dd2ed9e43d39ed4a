package analysis

import (
	"fmt"
	"strconv"
)

// ReferenceRange is the normal band of one parameter.
type ReferenceRange struct {
	Min  float64
	Max  float64
	Unit string
}

// String renders the band for display, e.g. "70-100 mg/dL".
func (r ReferenceRange) String() string {
	return fmt.Sprintf("%s-%s %s", formatNumber(r.Min), formatNumber(r.Max), r.Unit)
}

// ReferenceTable maps parameter keys to reference ranges. It is read-only once built
// and safe to share between goroutines.
type ReferenceTable struct {
	ranges map[string]ReferenceRange
}

// NewReferenceTable copies ranges into an immutable table.
func NewReferenceTable(ranges map[string]ReferenceRange) ReferenceTable {
	copied := make(map[string]ReferenceRange, len(ranges))
	for key, r := range ranges {
		copied[key] = r
	}
	return ReferenceTable{ranges: copied}
}

// DefaultReferenceTable returns the adult reference ranges used for report analysis.
// Blood pressure is split into systolic_bp and diastolic_bp because one match yields both.
func DefaultReferenceTable() ReferenceTable {
	return NewReferenceTable(map[string]ReferenceRange{
		"hemoglobin":   {Min: 12.0, Max: 16.0, Unit: "g/dL"},
		"glucose":      {Min: 70, Max: 100, Unit: "mg/dL"},
		"cholesterol":  {Min: 0, Max: 200, Unit: "mg/dL"},
		"systolic_bp":  {Min: 90, Max: 120, Unit: "mmHg"},
		"diastolic_bp": {Min: 60, Max: 80, Unit: "mmHg"},
		"creatinine":   {Min: 0.6, Max: 1.2, Unit: "mg/dL"},
		"urea":         {Min: 15, Max: 40, Unit: "mg/dL"},
		"bilirubin":    {Min: 0.2, Max: 1.2, Unit: "mg/dL"},
	})
}

// Lookup returns the range for key.
func (t ReferenceTable) Lookup(key string) (ReferenceRange, bool) {
	r, ok := t.ranges[key]
	return r, ok
}

// RangeString returns the display band for key, or "N/A" for unknown keys.
func (t ReferenceTable) RangeString(key string) string {
	r, ok := t.ranges[key]
	if !ok {
		return "N/A"
	}
	return r.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
