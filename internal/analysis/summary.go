package analysis

import (
	"fmt"

	"medscan/pkg/models"
)

// ComposeSummary writes the one-line count summary for readings.
func ComposeSummary(readings []models.ParameterReading) string {
	total := len(readings)
	normal := 0
	for _, r := range readings {
		if r.Status == models.StatusNormal {
			normal++
		}
	}

	abnormal := total - normal
	if abnormal == 0 {
		return fmt.Sprintf("All %d parameters are within normal ranges.", total)
	}
	return fmt.Sprintf("Out of %d parameters, %d are normal and %d require attention.", total, normal, abnormal)
}
