package vertex

import (
	"context"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

func TestNewLLMService_RequiresProject(t *testing.T) {
	_, err := NewLLMService(context.Background(), LLMConfig{})

	assert.ErrorContains(t, err, "project is required")
}

func TestSplitMessages(t *testing.T) {
	system, history, last, err := splitMessages([]driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "be brief"},
		{Role: driven.RoleUser, Content: "first"},
		{Role: driven.RoleAssistant, Content: "reply"},
		{Role: driven.RoleSystem, Content: "no markdown"},
		{Role: driven.RoleUser, Content: "caption this"},
	})

	require.NoError(t, err)
	assert.Equal(t, "be brief\n\nno markdown", system)
	assert.Equal(t, "caption this", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("reply"), history[1].Parts[0])
}

func TestSplitMessages_Invalid(t *testing.T) {
	_, _, _, err := splitMessages([]driven.ChatMessage{{Role: driven.RoleSystem, Content: "only system"}})
	assert.Error(t, err)

	_, _, _, err = splitMessages([]driven.ChatMessage{{Role: driven.RoleUser, Content: "q"}, {Role: driven.RoleAssistant, Content: "a"}})
	assert.Error(t, err)

	_, _, _, err = splitMessages([]driven.ChatMessage{{Role: "tool", Content: "x"}})
	assert.ErrorContains(t, err, "unknown role")
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(" A design "), genai.Text("review. ")}},
	}}}
	assert.Equal(t, "A design review.", responseText(resp))
}
