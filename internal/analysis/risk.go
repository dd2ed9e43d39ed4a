package analysis

import "medscan/pkg/models"

// highRiskThreshold is the number of high findings that must be exceeded for high risk.
const highRiskThreshold = 2

// AssessRisk reduces abnormalities to one risk level. Only high and critical
// findings escalate; any number of low findings stays at low risk.
func AssessRisk(abnormalities []models.Abnormality) models.RiskLevel {
	if len(abnormalities) == 0 {
		return models.RiskLow
	}

	var critical, high int
	for _, a := range abnormalities {
		switch a.Status {
		case models.StatusCritical:
			critical++
		case models.StatusHigh:
			high++
		}
	}

	switch {
	case critical > 0:
		return models.RiskCritical
	case high > highRiskThreshold:
		return models.RiskHigh
	case high > 0:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
