package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiGenerator is the slice of the genai client the Client uses
type geminiGenerator interface {
	generate(ctx context.Context, model, system, user string, temperature float64, maxTokens int) (string, error)
	ping(ctx context.Context, model string) error
}

type geminiFactory func(ctx context.Context, ep Endpoint) (geminiGenerator, error)

type genaiGenerator struct{ client *genai.Client }

func newGenaiGenerator(ctx context.Context, ep Endpoint) (geminiGenerator, error) {
	key := apiKey(ep)
	if key == "" {
		return nil, NewFatalError(fmt.Errorf("gemini requires an api key"))
	}
	cfg := &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI}
	if ep.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimSuffix(ep.BaseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create genai client: %w", err))
	}
	return genaiGenerator{client: client}, nil
}

func (g genaiGenerator) generate(ctx context.Context, model, system, user string, temperature float64, maxTokens int) (string, error) {
	temp := float32(temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   int32(maxTokens),
		ResponseMIMEType:  "application/json",
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}, cfg)
	if err != nil {
		return "", NewTransientError(fmt.Errorf("gemini generate: %w", err))
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", NewFatalError(fmt.Errorf("gemini returned no text"))
	}
	return text, nil
}

func (g genaiGenerator) ping(ctx context.Context, model string) error {
	if _, err := g.client.Models.Get(ctx, model, nil); err != nil {
		return NewTransientError(fmt.Errorf("gemini model lookup: %w", err))
	}
	return nil
}
