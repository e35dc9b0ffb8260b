// Package vertex provides an LLM service adapter for Gemini models on
// Google Cloud Vertex AI.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultLLMModel = "gemini-2.0-flash"
	DefaultRegion   = "us-central1"
)

// LLMConfig holds configuration for the Vertex AI service.
// Credentials come from Application Default Credentials.
type LLMConfig struct {
	// Project is the Google Cloud project ID (required).
	Project string

	// Region is the Vertex AI location (default: us-central1).
	Region string

	// Model is the Gemini model to use (default: gemini-2.0-flash).
	Model string
}

// LLMService provides chat completions using Gemini on Vertex AI.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a Vertex AI client.
func NewLLMService(ctx context.Context, cfg LLMConfig) (*LLMService, error) {
	if cfg.Project == "" {
		return nil, errors.New("vertex: project is required")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}

	client, err := genai.NewClient(ctx, cfg.Project, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &LLMService{client: client, model: cfg.Model}, nil
}

// Chat conducts a multi-turn conversation. System messages become the
// model's system instruction.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	system, history, last, err := splitMessages(messages)
	if err != nil {
		return "", err
	}

	model := s.client.GenerativeModel(s.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if opts.MaxTokens > 0 {
		model.GenerationConfig.MaxOutputTokens = genai.Ptr(int32(opts.MaxTokens))
	}
	model.GenerationConfig.Temperature = genai.Ptr(float32(opts.Temperature))

	session := model.StartChat()
	session.History = history
	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("vertex: generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("vertex: no text in response")
	}
	return text, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping counts tokens for a short prompt, which checks credentials and
// model access without generating.
func (s *LLMService) Ping(ctx context.Context) error {
	model := s.client.GenerativeModel(s.model)
	if _, err := model.CountTokens(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("vertex: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// splitMessages separates system text, prior turns, and the final user
// message that is sent.
func splitMessages(messages []driven.ChatMessage) (string, []*genai.Content, string, error) {
	var (
		system  []string
		history []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case driven.RoleSystem:
			system = append(system, m.Content)
		case driven.RoleUser:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		case driven.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			return "", nil, "", fmt.Errorf("vertex: unknown role %q", m.Role)
		}
	}
	if len(history) == 0 || history[len(history)-1].Role != "user" {
		return "", nil, "", errors.New("vertex: conversation must end with a user message")
	}
	last := history[len(history)-1]
	return strings.Join(system, "\n\n"), history[:len(history)-1], string(last.Parts[0].(genai.Text)), nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
