package models

// Insight is free-form commentary from a generative-AI provider.
// The text is displayed as-is and never parsed.
type Insight struct {
	Source      string `json:"source" bson:"source"`                   // Provider and model, e.g. "gemini-2.5-flash"
	RawResponse string `json:"raw_response" bson:"raw_response"`       // Narrative returned by the provider
	Error       string `json:"error,omitempty" bson:"error,omitempty"` // Provider failure, passed through for display
	Cached      bool   `json:"cached,omitempty" bson:"-"`              // Served from the insight cache
}

// OK reports whether the provider returned usable commentary.
func (i *Insight) OK() bool {
	return i != nil && i.Error == "" && i.RawResponse != ""
}
