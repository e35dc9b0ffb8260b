// Package ai builds the captioning stack from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamallm "github.com/custodia-labs/tether/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/tether/internal/adapters/driven/llm/openai"
	vertexllm "github.com/custodia-labs/tether/internal/adapters/driven/llm/vertex"
	"github.com/custodia-labs/tether/internal/adapters/driven/summarizer"
	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult holds the captioning services built from settings.
// Both fields are nil when summarization is disabled.
type InitResult struct {
	LLMService driven.LLMService
	Summarizer driven.Summarizer
}

// Close releases the LLM client.
func (r *InitResult) Close() {
	if r != nil && r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Enabled reports whether settings switch captioning on.
func Enabled(settings domain.SummarizerSettings) bool {
	return settings.Provider != "" && settings.Provider != domain.AIProviderNone
}

// CheckSettings reports missing or invalid values without contacting the provider.
func CheckSettings(settings domain.SummarizerSettings) error {
	if !Enabled(settings) {
		return nil
	}
	if !settings.Provider.IsValid() {
		return fmt.Errorf("%w: unknown summarizer provider %q", domain.ErrInvalidInput, settings.Provider)
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return fmt.Errorf("%w: %s requires an API key (set summarizer.api_key or OPENAI_API_KEY)",
			domain.ErrInvalidInput, settings.Provider)
	}
	if settings.Provider == domain.AIProviderVertex && settings.VertexProject == "" {
		return fmt.Errorf("%w: vertex requires vertex.project", domain.ErrInvalidInput)
	}
	return nil
}

// CreateLLMService creates the LLM adapter selected by settings.
// Returns nil when summarization is disabled.
func CreateLLMService(ctx context.Context, settings domain.SummarizerSettings) (driven.LLMService, error) {
	if !Enabled(settings) {
		return nil, nil
	}
	if err := CheckSettings(settings); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderVertex:
		return vertexllm.NewLLMService(ctx, vertexllm.LLMConfig{
			Project: settings.VertexProject,
			Region:  settings.VertexRegion,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported summarizer provider: %s", settings.Provider)
	}
}

// ValidateLLMConfig creates the configured service and pings it.
func ValidateLLMConfig(ctx context.Context, settings domain.SummarizerSettings) error {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, settings.Provider, err)
	}
	return nil
}

// NewSummarizer builds the LLM adapter and the summarizer around it.
// A disabled provider yields an empty result and no error.
func NewSummarizer(ctx context.Context, settings domain.SummarizerSettings, prompts driven.PromptStore) (*InitResult, error) {
	llm, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		return &InitResult{}, nil
	}

	s, err := summarizer.New(summarizer.Config{LLM: llm, Prompts: prompts})
	if err != nil {
		_ = llm.Close()
		return nil, errors.Join(domain.ErrLLMUnavailable, err)
	}
	return &InitResult{LLMService: llm, Summarizer: s}, nil
}
