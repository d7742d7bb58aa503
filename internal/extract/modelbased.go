package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/moverscan/internal/model"
	"github.com/sells-group/moverscan/pkg/anthropic"
)

// defaultMaxPromptChars bounds how much page text goes into the prompt,
// keeping well under model input limits.
const defaultMaxPromptChars = 6000

const extractSystemText = "You are a data extraction assistant. Extract moving company information from page text and return valid JSON matching the requested schema. If the text describes no moving company, return the literal string null."

const extractPromptTemplate = `Extract every moving company described in the page text below.

Return a JSON object with this exact shape:
{"companies": [{"name": "<company name>", "website": "<url or omit>", "phone": "<phone or omit>", "headquarters": "<city, state or omit>", "locations_served": ["<city or state>", ...], "rating": <0.0-5.0 or omit>, "services": ["<service tag>", ...], "years_in_business": <non-negative integer or omit>, "description": "<2-3 sentence summary>"}]}

Omit any field you cannot determine. If the text describes no moving
company, return null.

Page URL: %s
Page text:
%s`

// ModelExtractor converts raw content to plaintext, truncates it, and asks
// Claude to map it onto the company schema.
type ModelExtractor struct {
	client    anthropic.Client
	modelID   string
	maxChars  int
	converter *converter.Converter
	now       func() time.Time
}

// ModelOption configures a ModelExtractor.
type ModelOption func(*ModelExtractor)

// WithMaxPromptChars overrides the prompt text budget.
func WithMaxPromptChars(n int) ModelOption {
	return func(m *ModelExtractor) {
		if n > 0 {
			m.maxChars = n
		}
	}
}

// NewModel creates a ModelExtractor using the given client and model ID.
func NewModel(client anthropic.Client, modelID string, opts ...ModelOption) *ModelExtractor {
	m := &ModelExtractor{
		client:   client,
		modelID:  modelID,
		maxChars: defaultMaxPromptChars,
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ModelExtractor) Name() string { return "model" }

// Extract strips markup, truncates, and issues one extraction request.
// Unparseable model output comes back as (empty batch, *ExtractionParseError)
// so the caller can log and degrade; a literal null or empty companies list
// is a clean empty batch.
func (m *ModelExtractor) Extract(ctx context.Context, content Content) (model.CandidateBatch, error) {
	text := m.toPlaintext(content)
	if len(text) > m.maxChars {
		text = text[:m.maxChars]
	}

	resp, err := m.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     m.modelID,
		MaxTokens: 2048,
		System:    extractSystemText,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(extractPromptTemplate, content.URL, text)},
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "model extract: %s", content.Source)
	}

	batch, err := parseCompanies(anthropic.ExtractText(resp))
	if err != nil {
		return model.CandidateBatch{}, &ExtractionParseError{Source: content.Source, Err: err}
	}

	zap.L().Debug("extract: model pass complete",
		zap.String("source", content.Source),
		zap.String("url", content.URL),
		zap.Int("candidates", len(batch)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return stamp(batch.Sanitize(), content.Source, m.now().UTC()), nil
}

// toPlaintext converts HTML to markdown, falling back to the raw body when
// conversion fails or produces nothing.
func (m *ModelExtractor) toPlaintext(content Content) string {
	md, err := m.converter.ConvertString(content.Body, converter.WithDomain(content.URL))
	if err != nil || strings.TrimSpace(md) == "" {
		return content.Body
	}
	return strings.TrimSpace(md)
}

// companiesWrapper is the root of the model's target schema.
type companiesWrapper struct {
	Companies []model.CompanyRecord `json:"companies"`
}

// parseCompanies strictly parses model output. A literal "null", "none" or
// empty string is a valid empty result; anything else must be JSON with a
// companies array.
func parseCompanies(text string) (model.CandidateBatch, error) {
	cleaned := cleanJSON(text)
	switch strings.ToLower(cleaned) {
	case "", "null", "none", "[]", "{}":
		return model.CandidateBatch{}, nil
	}

	var wrapper companiesWrapper
	if err := json.Unmarshal([]byte(cleaned), &wrapper); err != nil {
		return nil, eris.Wrap(err, "unmarshal companies")
	}
	return model.CandidateBatch(wrapper.Companies), nil
}

// cleanJSON strips markdown code fences and surrounding prose from model
// output, leaving the outermost JSON value.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	// Model sometimes wraps JSON in a sentence; trim to the outer braces.
	if start := strings.Index(text, "{"); start > 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}
	return text
}
