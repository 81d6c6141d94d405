// Package factcheck annotates posts with a verdict from a generative model.
// Every failure degrades to an "unavailable" annotation.
package factcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("fact-check provider not configured")

// Result is a parsed provider answer
type Result struct {
	Verdict     models.Verdict
	Explanation string
	Confidence  *float64
}

// Provider checks a piece of text
type Provider interface {
	Check(ctx context.Context, text string) (*Result, error)
	Model() string
}

const instruction = `You are a careful fact-checker for a social network.
Classify the claim in the user's post with exactly one verdict:
true, false, misleading, opinion, unverified, outdated, satire.
Explain the verdict in at most two short sentences a general reader understands.
If you are unsure, prefer "unverified". Optionally give a confidence between 0 and 1.
Respond with JSON only: {"verdict": "...", "explanation": "...", "confidence": 0.0}`

// GenAIProvider calls a Gemini model through google.golang.org/genai
type GenAIProvider struct {
	client *genai.Client
	model  string
}

// NewGenAIProvider creates a provider. baseURL overrides the API endpoint and
// is empty in production.
func NewGenAIProvider(ctx context.Context, apiKey, model, baseURL string) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GenAIProvider{client: client, model: model}, nil
}

func (p *GenAIProvider) Model() string { return p.model }

func responseSchema() *genai.Schema {
	verdicts := make([]string, len(models.Verdicts))
	for i, v := range models.Verdicts {
		verdicts[i] = string(v)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"verdict":     {Type: genai.TypeString, Enum: verdicts},
			"explanation": {Type: genai.TypeString},
			"confidence":  {Type: genai.TypeNumber},
		},
		Required: []string{"verdict", "explanation"},
	}
}

// Check sends text with the fixed instruction and parses the JSON answer
func (p *GenAIProvider) Check(ctx context.Context, text string) (res *Result, err error) {
	ctx, span := telemetry.StartClientSpan(ctx, "genai", "generate_content", attribute.String("genai.model", p.model))
	defer func() { telemetry.End(span, err) }()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
		Temperature:       genai.Ptr[float32](0),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty response")
	}
	return ParseResult(result.Candidates[0].Content.Parts[0].Text)
}

type wireResult struct {
	Verdict     string   `json:"verdict"`
	Explanation string   `json:"explanation"`
	Confidence  *float64 `json:"confidence"`
}

// ParseResult decodes a provider answer. Unknown verdicts are errors;
// out-of-range confidence is dropped.
func ParseResult(raw string) (*Result, error) {
	var w wireResult
	if err := jsoniter.UnmarshalFromString(cleanJSON(raw), &w); err != nil {
		return nil, fmt.Errorf("unparsable response: %w", err)
	}
	v := models.Verdict(strings.ToLower(strings.TrimSpace(w.Verdict)))
	if !v.Valid() {
		return nil, fmt.Errorf("unknown verdict %q", w.Verdict)
	}
	res := &Result{Verdict: v, Explanation: strings.TrimSpace(w.Explanation)}
	if w.Confidence != nil && *w.Confidence >= 0 && *w.Confidence <= 1 {
		c := *w.Confidence
		res.Confidence = &c
	}
	return res, nil
}

// cleanJSON strips markdown code fences some models wrap around JSON
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
