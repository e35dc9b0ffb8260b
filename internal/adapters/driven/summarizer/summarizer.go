// Package summarizer captions downloaded files with a language model.
//
// Text is extracted by the normaliser registered for the file extension,
// truncated, and sent to the model with the caption prompt.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/logger"
	"github.com/custodia-labs/tether/internal/normalisers"
)

var _ driven.Summarizer = (*Summarizer)(nil)

// Defaults.
const (
	DefaultMaxChars    = 4000
	DefaultMaxTokens   = 120
	DefaultTemperature = 0.2
	MaxSentences       = 2
)

const (
	fallbackSystemPrompt  = "You write captions for a document search index. A caption is at most two sentences."
	fallbackCaptionPrompt = "Write a searchable caption for the document below.\n\n%s\n\nCaption:"
)

// Config configures a Summarizer.
type Config struct {
	// LLM produces the caption. Required.
	LLM driven.LLMService
	// Prompts supplies editable prompt templates. Optional.
	Prompts driven.PromptStore
	// Normalisers extracts text. Nil uses normalisers.Default().
	Normalisers *normalisers.Registry
	// MaxChars is how much extracted text is sent to the model.
	MaxChars int
	// MaxTokens bounds the reply length.
	MaxTokens int
}

// Summarizer implements driven.Summarizer.
type Summarizer struct {
	llm       driven.LLMService
	prompts   driven.PromptStore
	registry  *normalisers.Registry
	maxChars  int
	maxTokens int
}

// New creates a Summarizer.
func New(cfg Config) (*Summarizer, error) {
	if cfg.LLM == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if cfg.Normalisers == nil {
		cfg.Normalisers = normalisers.Default()
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Summarizer{
		llm:       cfg.LLM,
		prompts:   cfg.Prompts,
		registry:  cfg.Normalisers,
		maxChars:  cfg.MaxChars,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Supports reports whether a normaliser is registered for path's extension.
func (s *Summarizer) Supports(path string) bool {
	_, ok := s.registry.For(path)
	return ok
}

// Summarize extracts the text of the file at path and returns a caption of
// at most two sentences. Unsupported formats fail before the model is called.
func (s *Summarizer) Summarize(ctx context.Context, path string) (string, error) {
	n, ok := s.registry.For(path)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, filepath.Ext(path))
	}

	text, err := n.Normalise(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return "", fmt.Errorf("%w: %w", domain.ErrUnsupportedFileType, err)
		}
		return "", fmt.Errorf("extracting text: %w", err)
	}
	text = Truncate(strings.TrimSpace(text), s.maxChars)
	if text == "" {
		return "", domain.ErrNoText
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.prompt(driven.PromptCaptionSystem, fallbackSystemPrompt)},
		{Role: driven.RoleUser, Content: fmt.Sprintf(s.prompt(driven.PromptCaption, fallbackCaptionPrompt), text)},
	}
	logger.Debug("requesting caption", "model", s.llm.ModelName(), "chars", utf8.RuneCountInString(text))

	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   s.maxTokens,
		Temperature: DefaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("caption: %w", err)
	}

	caption := Clean(reply, MaxSentences)
	if caption == "" {
		return "", fmt.Errorf("caption: model %s returned an empty reply", s.llm.ModelName())
	}
	return caption, nil
}

func (s *Summarizer) prompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	p, err := s.prompts.Load(name)
	if err != nil {
		logger.Warn("prompt unavailable, using built-in", "prompt", name, "error", err)
		return fallback
	}
	if name == driven.PromptCaption && strings.Count(p, "%s") != 1 {
		logger.Warn("caption prompt must contain exactly one %s, using built-in", "prompt", name)
		return fallback
	}
	return p
}

// Truncate returns the first limit runes of s.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// Clean normalises a model reply into a single-line caption of at most
// sentences sentences. Surrounding quotes and a "Caption:" label are removed.
func Clean(reply string, sentences int) string {
	s := strings.Join(strings.Fields(reply), " ")
	if len(s) >= len("caption:") && strings.EqualFold(s[:len("caption:")], "caption:") {
		s = strings.TrimSpace(s[len("caption:"):])
	}
	s = strings.Trim(s, "\"'“”` ")

	count := 0
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(s) {
			following, size := utf8.DecodeRuneInString(s[next:])
			if closesSentence(following) {
				next += size
				if next < len(s) {
					following, _ = utf8.DecodeRuneInString(s[next:])
				}
			}
			if next < len(s) && !unicode.IsSpace(following) {
				continue
			}
		}
		count++
		if count == sentences {
			return strings.TrimSpace(s[:next])
		}
	}
	return s
}

// closesSentence reports whether r may trail a sentence terminator.
func closesSentence(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', ')', '»':
		return true
	}
	return false
}
