package pipeline

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/feedherald/feedherald/internal/config"
	"github.com/feedherald/feedherald/internal/core"
	"github.com/feedherald/feedherald/internal/llm"
)

const defaultSystemTemplate = `You summarize syndication feed items for a chat digest. Be specific and concise. Answer with bullet points only.`

const defaultPromptTemplate = `Summarize this item from {{.Source}}.

Title: {{.Title}}

Content:
{{.Body}}

Provide:
1. Main topic (1-2 sentences)
2. Key points (3-5 bullet points)
3. Takeaways (1-2 bullet points)`

// Enricher attaches a generated summary to each candidate. Enrichment failure
// is non-fatal: the item proceeds with an empty summary and the candidate
// sequence is never reordered or shortened.
type Enricher struct {
	client         llm.Client
	model          string
	systemTemplate *template.Template
	promptTemplate *template.Template
	maxInputChars  int
	timeout        time.Duration
}

func NewEnricher(cfg *config.SummaryConfig, client llm.Client, defaultModel string) (*Enricher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("summary config is required")
	}
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}

	systemText := cfg.SystemTemplate
	if systemText == "" {
		systemText = defaultSystemTemplate
	}
	promptText := cfg.PromptTemplate
	if promptText == "" {
		promptText = defaultPromptTemplate
	}

	systemTmpl, err := template.New("summary_system").Parse(systemText)
	if err != nil {
		return nil, fmt.Errorf("parse system template: %w", err)
	}
	promptTmpl, err := template.New("summary_prompt").Parse(promptText)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Enricher{
		client:         client,
		model:          model,
		systemTemplate: systemTmpl,
		promptTemplate: promptTmpl,
		maxInputChars:  cfg.MaxInputChars,
		timeout:        cfg.Timeout.Std(),
	}, nil
}

// Enrich summarizes candidates sequentially, preserving order. Failures leave
// the item unchanged.
func (e *Enricher) Enrich(ctx context.Context, items []*core.Item) []*core.Item {
	logger := core.LoggerFromContext(ctx)
	for _, item := range items {
		summary, err := e.summarize(ctx, item)
		if err != nil {
			logger.Warn("enrichment failed, delivering without summary",
				"source", item.Source, "id", item.Identifier, "error", err)
			continue
		}
		item.Summary = summary
	}
	return items
}

func (e *Enricher) summarize(ctx context.Context, item *core.Item) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	data := struct {
		Source string
		Title  string
		Body   string
	}{
		Source: item.Source,
		Title:  item.Title,
		Body:   truncateRunes(item.Body, e.maxInputChars),
	}

	systemPrompt, err := executeTemplate(e.systemTemplate, data)
	if err != nil {
		return "", err
	}
	userPrompt, err := executeTemplate(e.promptTemplate, data)
	if err != nil {
		return "", err
	}

	response, err := e.client.ChatCompletion(ctx, llm.ChatRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Content), nil
}

func executeTemplate(tmpl *template.Template, data any) (string, error) {
	builder := &strings.Builder{}
	if err := tmpl.Execute(builder, data); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
