package analysis

import "medscan/pkg/models"

const (
	// criticalLowFactor marks values below min*0.7 as critical.
	criticalLowFactor = 0.7

	// criticalHighFactor marks values above max*1.3 as critical.
	criticalHighFactor = 1.3
)

// Classifier assigns a status to values using a reference table.
type Classifier struct {
	ranges ReferenceTable
}

// NewClassifier creates a classifier over ranges.
func NewClassifier(ranges ReferenceTable) *Classifier {
	return &Classifier{ranges: ranges}
}

// Status classifies value against the range for key. Unknown keys are always normal.
func (c *Classifier) Status(key string, value float64) models.Status {
	r, ok := c.ranges.Lookup(key)
	if !ok {
		return models.StatusNormal
	}

	switch {
	case value < r.Min:
		if value < r.Min*criticalLowFactor {
			return models.StatusCritical
		}
		return models.StatusLow
	case value > r.Max:
		if value > r.Max*criticalHighFactor {
			return models.StatusCritical
		}
		return models.StatusHigh
	default:
		return models.StatusNormal
	}
}

// Reading turns a draft into a classified reading. A draft without a unit takes
// the unit of its reference range.
func (c *Classifier) Reading(d Draft) models.ParameterReading {
	unit := d.Unit
	if unit == "" {
		if r, ok := c.ranges.Lookup(d.Key); ok {
			unit = r.Unit
		}
	}

	return models.ParameterReading{
		Name:        d.Name,
		Value:       d.Value,
		Unit:        unit,
		Status:      c.Status(d.Key, d.Value),
		NormalRange: c.ranges.RangeString(d.Key),
	}
}

// CollectAbnormalities keeps readings whose status is not normal, in input order,
// and attaches their severity rank.
func CollectAbnormalities(readings []models.ParameterReading) []models.Abnormality {
	abnormalities := make([]models.Abnormality, 0)
	for _, r := range readings {
		if r.Status == models.StatusNormal {
			continue
		}
		abnormalities = append(abnormalities, models.Abnormality{
			ParameterReading: r,
			Severity:         r.Status.Severity(),
		})
	}
	return abnormalities
}
