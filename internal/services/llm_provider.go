package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// LangChainGenerator drives any langchaingo model.
type LangChainGenerator struct {
	Client    llms.Model
	ModelName string
}

// NewGoogleAIGenerator builds the default Gemini client through langchaingo.
func NewGoogleAIGenerator(ctx context.Context, apiKey, model string) (*LangChainGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LangChainGenerator{Client: llm, ModelName: model}, nil
}

func (g *LangChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.Client == nil {
		return "", errors.New("llm client is not initialized")
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, g.Client, prompt, llms.WithTemperature(0.3))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if strings.TrimSpace(resp) == "" {
		return "", errors.New("llm returned empty response")
	}
	return resp, nil
}

func (g *LangChainGenerator) Model() string {
	if g == nil {
		return ""
	}
	return g.ModelName
}

// GenAIGenerator talks to the Gemini API through the google genai SDK.
type GenAIGenerator struct {
	client    *genai.Client
	modelName string
}

func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &GenAIGenerator{client: client, modelName: model}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("genai client is not initialized")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(strings.TrimSpace(part.Text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini api returned empty response")
	}
	return b.String(), nil
}

func (g *GenAIGenerator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// NewGenerator picks the provider by name. "none" returns nil, which the
// LLM service treats as "always fall back".
func NewGenerator(ctx context.Context, provider, apiKey, model string) (Generator, error) {
	switch provider {
	case "", "googleai":
		return NewGoogleAIGenerator(ctx, apiKey, model)
	case "genai":
		return NewGenAIGenerator(ctx, apiKey, model)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
