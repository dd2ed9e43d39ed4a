package insights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"medscan/pkg/models"
)

type fakeCompleter struct {
	failures int
	calls    int
	requests []openai.ChatCompletionRequest
	answer   string
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.calls <= f.failures {
		return openai.ChatCompletionResponse{}, errors.New("503 service unavailable")
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.answer}}},
	}, nil
}

type fakeGenerator struct {
	model string
	text  string
	err   error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

type fakeProvider struct {
	name    string
	insight *models.Insight
	err     error
	delay   time.Duration
	calls   int
	mu      sync.Mutex
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Insights(ctx context.Context, text string, analysis *models.AnalysisResult) (*models.Insight, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	time.Sleep(f.delay)
	return f.insight, f.err
}

type memoryCache struct {
	data map[string]string
	sets int
}

func (m *memoryCache) Get(ctx context.Context, key string) *redis.StringCmd {
	value, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.sets++
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func sampleAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		Parameters: []models.ParameterReading{
			{Name: "Glucose", Value: 150, Unit: "mg/dL", Status: models.StatusCritical, NormalRange: "70-100 mg/dL"},
		},
		Summary:   "Out of 1 parameters, 0 are normal and 1 require attention.",
		RiskLevel: models.RiskCritical,
	}
}

func TestBuildPromptTruncatesText(t *testing.T) {
	text := strings.Repeat("é", MaxPromptTextChars+200)

	prompt := BuildPrompt(text, sampleAnalysis())
	if strings.Count(prompt, "é") != MaxPromptTextChars {
		t.Errorf("prompt embeds %d characters of text, want %d", strings.Count(prompt, "é"), MaxPromptTextChars)
	}
	if !strings.Contains(prompt, `"name":"Glucose"`) || !strings.Contains(prompt, `"normal_range":"70-100 mg/dL"`) {
		t.Errorf("prompt does not embed parameters as JSON: %s", prompt)
	}
	if !strings.Contains(prompt, "Summary: Out of 1 parameters") {
		t.Error("prompt does not embed the summary")
	}
}

func TestBuildPromptWithoutAnalysis(t *testing.T) {
	prompt := BuildPrompt("Glucose 90", nil)
	if !strings.Contains(prompt, "Parameters: []") {
		t.Errorf("prompt = %s", prompt)
	}
}

func TestOpenAIProviderRetries(t *testing.T) {
	completer := &fakeCompleter{failures: 2, answer: "  Elevated glucose suggests diabetes.  "}
	p := &OpenAIProvider{
		client: completer,
		config: OpenAIConfig{Name: "hf", Model: "meta-llama/Llama-3.1-8B-Instruct", MaxRetries: 3},
		log:    zerolog.Nop(),
	}

	insight, err := p.Insights(context.Background(), "Glucose: 150 mg/dl", sampleAnalysis())
	if err != nil {
		t.Fatalf("Insights returned error: %v", err)
	}
	if completer.calls != 3 {
		t.Errorf("calls = %d, want 3", completer.calls)
	}
	if insight.RawResponse != "Elevated glucose suggests diabetes." || insight.Source != "meta-llama/Llama-3.1-8B-Instruct" {
		t.Errorf("insight = %+v", insight)
	}
	if got := completer.requests[0].Messages[0].Role; got != openai.ChatMessageRoleSystem {
		t.Errorf("first message role = %s", got)
	}
}

func TestOpenAIProviderGivesUp(t *testing.T) {
	completer := &fakeCompleter{failures: 5}
	p := &OpenAIProvider{
		client: completer,
		config: OpenAIConfig{Name: "hf", Model: "m", MaxRetries: 2},
		log:    zerolog.Nop(),
	}

	_, err := p.Insights(context.Background(), "text", nil)
	var insightErr *InsightError
	if !errors.As(err, &insightErr) || insightErr.Provider != "hf" {
		t.Fatalf("err = %v, want InsightError for hf", err)
	}
	if completer.calls != 2 {
		t.Errorf("calls = %d, want 2", completer.calls)
	}
}

func TestProvidersWithoutKeysReportNotConfigured(t *testing.T) {
	gemini, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	if err != nil {
		t.Fatalf("NewGeminiProvider returned error: %v", err)
	}
	hf := NewOpenAIProvider(OpenAIConfig{Name: "hf", Model: "m"})

	for _, p := range []Provider{gemini, hf} {
		insight, err := p.Insights(context.Background(), "text", nil)
		if err != nil {
			t.Fatalf("%s returned error: %v", p.Name(), err)
		}
		if !strings.HasSuffix(insight.Error, "not configured") || insight.OK() {
			t.Errorf("%s insight = %+v, want not configured", p.Name(), insight)
		}
	}
}

func TestGeminiProvider(t *testing.T) {
	gen := &fakeGenerator{text: "Your glucose is high."}
	p := &GeminiProvider{
		models: gen,
		config: GeminiConfig{Model: "gemini-2.5-flash", MaxRetries: 1},
		log:    zerolog.Nop(),
	}

	insight, err := p.Insights(context.Background(), "Glucose: 150 mg/dl", sampleAnalysis())
	if err != nil {
		t.Fatalf("Insights returned error: %v", err)
	}
	if gen.model != "gemini-2.5-flash" || insight.RawResponse != "Your glucose is high." || insight.Source != "gemini-2.5-flash" {
		t.Errorf("model = %s, insight = %+v", gen.model, insight)
	}
}

func TestGeminiProviderEmptyResponse(t *testing.T) {
	p := &GeminiProvider{
		models: &fakeGenerator{text: "   "},
		config: GeminiConfig{Model: "gemini-2.5-flash", MaxRetries: 2},
		log:    zerolog.Nop(),
	}

	_, err := p.Insights(context.Background(), "text", nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestCollectKeepsProviderOrder(t *testing.T) {
	slow := &fakeProvider{name: "gemini", insight: &models.Insight{Source: "gemini-2.5-flash", RawResponse: "slow"}, delay: 20 * time.Millisecond}
	failing := &fakeProvider{name: "hf", err: WrapInsightError("hf", "Insights", errors.New("boom"))}
	fast := &fakeProvider{name: "local", insight: &models.Insight{Source: "local", RawResponse: "fast"}}

	results := NewService(slow, failing, fast).Collect(context.Background(), "text", sampleAnalysis())

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	wantOrder := []string{"gemini", "hf", "local"}
	for i, r := range results {
		if r.Provider != wantOrder[i] {
			t.Errorf("result %d provider = %s, want %s", i, r.Provider, wantOrder[i])
		}
	}
	if results[0].Insight.RawResponse != "slow" || !results[0].Insight.OK() {
		t.Errorf("gemini insight = %+v", results[0].Insight)
	}
	if !strings.HasPrefix(results[1].Insight.Error, "Failed to get hf insights") {
		t.Errorf("failing provider error = %q", results[1].Insight.Error)
	}
}

func TestServiceQuery(t *testing.T) {
	svc := NewService(&fakeProvider{name: "gemini", err: ErrNotConfigured})

	result, err := svc.Query(context.Background(), "gemini", "text", nil)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if result.Insight.Error != "gemini not configured" {
		t.Errorf("error = %q", result.Insight.Error)
	}

	if _, err := svc.Query(context.Background(), "openai", "text", nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestCachedProvider(t *testing.T) {
	next := &fakeProvider{name: "gemini", insight: &models.Insight{Source: "gemini-2.5-flash", RawResponse: "cached text"}}
	cache := &memoryCache{data: map[string]string{}}
	p := NewCachedProvider(next, cache, time.Hour)

	first, err := p.Insights(context.Background(), "Glucose: 150 mg/dl", sampleAnalysis())
	if err != nil {
		t.Fatalf("first Insights returned error: %v", err)
	}
	second, err := p.Insights(context.Background(), "Glucose: 150 mg/dl", sampleAnalysis())
	if err != nil {
		t.Fatalf("second Insights returned error: %v", err)
	}

	if next.calls != 1 || cache.sets != 1 {
		t.Errorf("provider calls = %d, cache sets = %d; want 1 and 1", next.calls, cache.sets)
	}
	if first.Cached || !second.Cached || second.RawResponse != "cached text" {
		t.Errorf("first = %+v, second = %+v", first, second)
	}

	key := CacheKey("gemini", BuildPrompt("Glucose: 150 mg/dl", sampleAnalysis()))
	if _, ok := cache.data[key]; !ok || !strings.HasPrefix(key, "insights:gemini:") || len(key) != len("insights:gemini:")+64 {
		t.Errorf("unexpected cache key %q", key)
	}
}

func TestCachedProviderSkipsErrors(t *testing.T) {
	next := &fakeProvider{name: "hf", insight: &models.Insight{Source: "m", Error: "hf not configured"}}
	cache := &memoryCache{data: map[string]string{}}
	p := NewCachedProvider(next, cache, time.Hour)

	for i := 0; i < 2; i++ {
		if _, err := p.Insights(context.Background(), "text", nil); err != nil {
			t.Fatalf("Insights returned error: %v", err)
		}
	}
	if cache.sets != 0 || next.calls != 2 {
		t.Errorf("cache sets = %d, provider calls = %d; want 0 and 2", cache.sets, next.calls)
	}
}

func TestOpenAIProviderDefaultName(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{Model: "m"})
	if p.Name() != "hf" {
		t.Errorf("Name() = %q, want hf", p.Name())
	}
}
