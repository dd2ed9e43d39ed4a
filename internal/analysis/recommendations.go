package analysis

import (
	"strings"

	"medscan/pkg/models"
)

// MaxRecommendations caps the number of advisory lines returned.
const MaxRecommendations = 5

const (
	healthyLifestyleAdvice = "All parameters are within normal ranges. Continue maintaining a healthy lifestyle."
	consultProviderAdvice  = "Consult with your healthcare provider for proper interpretation and treatment plan."
	checkupAdvice          = "Maintain regular health checkups and follow prescribed medications."
)

// advisory maps one recognised name fragment to status-conditioned advice.
type advisory struct {
	fragment string
	advice   map[models.Status]string
}

// advisories are matched in order; the first fragment contained in the
// lower-cased abnormality name wins.
var advisories = []advisory{
	{
		fragment: "hemoglobin",
		advice: map[models.Status]string{
			models.StatusLow:      "Consider iron-rich foods like spinach, red meat, and lentils. Consult a doctor for potential anemia.",
			models.StatusCritical: "Consider iron-rich foods like spinach, red meat, and lentils. Consult a doctor for potential anemia.",
			models.StatusHigh:     "High hemoglobin may indicate dehydration or other conditions. Consult your doctor.",
		},
	},
	{
		fragment: "glucose",
		advice: map[models.Status]string{
			models.StatusHigh:     "Monitor blood sugar levels. Consider reducing sugar intake and consult an endocrinologist.",
			models.StatusCritical: "Monitor blood sugar levels. Consider reducing sugar intake and consult an endocrinologist.",
			models.StatusLow:      "Low blood sugar detected. Have a quick source of glucose and monitor levels.",
		},
	},
	{
		fragment: "cholesterol",
		advice: map[models.Status]string{
			models.StatusHigh:     "Reduce saturated fats, increase fiber intake, and consider regular exercise.",
			models.StatusCritical: "Reduce saturated fats, increase fiber intake, and consider regular exercise.",
		},
	},
	{
		fragment: "bp",
		advice: map[models.Status]string{
			models.StatusHigh:     "Monitor blood pressure regularly. Reduce sodium intake and manage stress.",
			models.StatusCritical: "Monitor blood pressure regularly. Reduce sodium intake and manage stress.",
			models.StatusLow:      "Low blood pressure detected. Stay hydrated and consult your doctor.",
		},
	},
}

// GenerateRecommendations returns at most MaxRecommendations advisory lines.
// The language is accepted for downstream text generation; the lines themselves
// are not translated.
func GenerateRecommendations(abnormalities []models.Abnormality, _ string) []string {
	if len(abnormalities) == 0 {
		return []string{healthyLifestyleAdvice}
	}

	recommendations := make([]string, 0, len(abnormalities)+2)
	for _, a := range abnormalities {
		if advice, ok := adviceFor(a); ok {
			recommendations = append(recommendations, advice)
		}
	}
	recommendations = append(recommendations, consultProviderAdvice, checkupAdvice)

	if len(recommendations) > MaxRecommendations {
		recommendations = recommendations[:MaxRecommendations]
	}
	return recommendations
}

func adviceFor(a models.Abnormality) (string, bool) {
	name := strings.ToLower(a.Name)
	for _, adv := range advisories {
		if !strings.Contains(name, adv.fragment) {
			continue
		}
		text, ok := adv.advice[a.Status]
		return text, ok
	}
	return "", false
}
