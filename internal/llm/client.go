package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"insight-service/internal/apperr"
	"insight-service/pkg/config"

	"google.golang.org/genai"
)

// Client rewrites template narrative drafts with the Gemini API.
// Callers treat it as best-effort: every failure surfaces as an
// apperr.Upstream error and the caller keeps the deterministic draft.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewClient creates an enrichment client. Returns (nil, nil) when no
// API key is configured; a nil *Client disables enrichment.
func NewClient(ctx context.Context, cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Configuration, err, "failed to create LLM client")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{client: client, model: model, timeout: timeout}, nil
}

const enrichPrompt = `You are an analytics assistant for a small business.
Rewrite the following data summary as a short, friendly answer to the owner's question.
Keep every number and item name exactly as given. Do not invent data. Two to four sentences.

Question: %s

Data summary: %s`

// Enrich rewrites the draft. The configured timeout bounds the call;
// on expiry the context error propagates and the caller falls back.
func (c *Client) Enrich(ctx context.Context, draft, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(enrichPrompt, question, draft)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperr.Wrap(apperr.Upstream, err, "LLM request failed")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperr.New(apperr.Upstream, "LLM returned no text")
	}
	return text, nil
}
