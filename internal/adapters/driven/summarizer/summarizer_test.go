package summarizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

type fakeLLM struct {
	reply    string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	f.calls++
	f.messages = messages
	f.opts = opts
	return f.reply, f.err
}

func (f *fakeLLM) ModelName() string { return "fake" }

func (f *fakeLLM) Ping(context.Context) error { return nil }

func (f *fakeLLM) Close() error { return nil }

type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func (p fakePrompts) Reload() {}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNew_RequiresLLM(t *testing.T) {
	_, err := New(Config{})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestSupports(t *testing.T) {
	s, err := New(Config{LLM: &fakeLLM{}})
	require.NoError(t, err)

	for _, p := range []string{"a.txt", "b.MD", "c.csv", "d.pdf", "e.docx"} {
		assert.True(t, s.Supports(p), p)
	}
	for _, p := range []string{"a.png", "b.pptx", "noext"} {
		assert.False(t, s.Supports(p), p)
	}
}

func TestSummarize_SendsPromptAndCleansReply(t *testing.T) {
	llm := &fakeLLM{reply: "  Caption: \"Meeting notes for the Q3 launch. Lists owners and dates. Extra detail.\"\n"}
	s, err := New(Config{
		LLM: llm,
		Prompts: fakePrompts{
			driven.PromptCaptionSystem: "system prompt",
			driven.PromptCaption:       "Caption this:\n%s",
		},
	})
	require.NoError(t, err)

	got, err := s.Summarize(context.Background(), writeFile(t, "notes.txt", "Q3 launch\nowners: ann"))

	require.NoError(t, err)
	assert.Equal(t, "Meeting notes for the Q3 launch. Lists owners and dates.", got)
	require.Len(t, llm.messages, 2)
	assert.Equal(t, driven.ChatMessage{Role: driven.RoleSystem, Content: "system prompt"}, llm.messages[0])
	assert.Equal(t, "Caption this:\nQ3 launch\nowners: ann", llm.messages[1].Content)
	assert.Equal(t, DefaultMaxTokens, llm.opts.MaxTokens)
}

func TestSummarize_TruncatesInput(t *testing.T) {
	llm := &fakeLLM{reply: "A long file."}
	s, err := New(Config{LLM: llm, MaxChars: 10})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), writeFile(t, "long.txt", strings.Repeat("é", 50)))

	require.NoError(t, err)
	assert.Contains(t, llm.messages[1].Content, strings.Repeat("é", 10))
	assert.NotContains(t, llm.messages[1].Content, strings.Repeat("é", 11))
}

func TestSummarize_FallsBackOnBadPrompt(t *testing.T) {
	llm := &fakeLLM{reply: "ok."}
	s, err := New(Config{LLM: llm, Prompts: fakePrompts{driven.PromptCaption: "no placeholder"}})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), writeFile(t, "a.txt", "content"))

	require.NoError(t, err)
	assert.Equal(t, fallbackSystemPrompt, llm.messages[0].Content)
	assert.Contains(t, llm.messages[1].Content, "content")
	assert.NotContains(t, llm.messages[1].Content, "no placeholder")
}

func TestSummarize_UnsupportedBeforeModelCall(t *testing.T) {
	llm := &fakeLLM{reply: "x"}
	s, err := New(Config{LLM: llm})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), writeFile(t, "slides.pptx", "PK"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = s.Summarize(context.Background(), writeFile(t, "fake.docx", "not a zip"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	assert.Zero(t, llm.calls)
}

func TestSummarize_EmptyText(t *testing.T) {
	llm := &fakeLLM{}
	s, err := New(Config{LLM: llm})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), writeFile(t, "blank.md", "\n\n   \n"))

	assert.ErrorIs(t, err, domain.ErrNoText)
	assert.Zero(t, llm.calls)
}

func TestSummarize_ModelErrors(t *testing.T) {
	boom := errors.New("backend down")
	s, err := New(Config{LLM: &fakeLLM{err: boom}})
	require.NoError(t, err)
	_, err = s.Summarize(context.Background(), writeFile(t, "a.txt", "content"))
	assert.ErrorIs(t, err, boom)

	s, err = New(Config{LLM: &fakeLLM{reply: " \"\" "}})
	require.NoError(t, err)
	_, err = s.Summarize(context.Background(), writeFile(t, "a.txt", "content"))
	assert.ErrorContains(t, err, "empty reply")
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "One. Two. Three.", want: "One. Two."},
		{in: "Version 1.2 of the plan. Covers costs! More.", want: "Version 1.2 of the plan. Covers costs!"},
		{in: "no terminator", want: "no terminator"},
		{in: "caption: 'Quoted.'", want: "Quoted."},
		{in: "Line one\nline two.", want: "Line one line two."},
		{in: "“Curly.”", want: "Curly."},
		{in: "He said “Stop.” Then left. Then came back. Fourth.", want: "He said “Stop.” Then left."},
		{in: "A note (draft.) Second one. Third.", want: "A note (draft.) Second one."},
		{in: "Ends in a quote “yes!” Next. Last.", want: "Ends in a quote “yes!” Next."},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Clean(tc.in, 2), tc.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))
}
