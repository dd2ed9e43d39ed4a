package insights

import (
	"fmt"

	"github.com/goccy/go-json"

	"medscan/pkg/models"
)

// MaxPromptTextChars limits the report text embedded in a prompt.
const MaxPromptTextChars = 1000

const systemPrompt = "You are a medical AI assistant. You explain lab reports to patients in clear, " +
	"careful language and always recommend consulting a healthcare professional."

// BuildPrompt renders the request sent to every provider. The report text is
// truncated; parameters and summary come from the local analysis.
func BuildPrompt(text string, analysis *models.AnalysisResult) string {
	parameters := []byte("[]")
	summary := ""
	if analysis != nil {
		if encoded, err := json.Marshal(analysis.Parameters); err == nil && analysis.Parameters != nil {
			parameters = encoded
		}
		summary = analysis.Summary
	}

	return fmt.Sprintf(`As a medical AI assistant, analyze this medical report and provide insights in JSON format:

Medical Report Text:
%s

Current Analysis:
Parameters: %s
Summary: %s

Return a JSON object with:
{
    "summary": "Clear summary of findings",
    "disease": "Identified disease or condition",
    "recommendations": ["Recommendation 1", "Recommendation 2", ...],
    "when_to_seek_help": ["Condition 1", "Condition 2", ...],
    "follow_up": ["Follow-up action 1", "Follow-up action 2", ...]
}`, truncate(text, MaxPromptTextChars), parameters, summary)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
