package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error; known names fall back to a default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptCaptionSystem is the system instruction for caption generation.
	// It has no format placeholders.
	PromptCaptionSystem = "caption_system"

	// PromptCaption asks for a caption of extracted document text.
	// The template expects one %s placeholder for the extracted text.
	PromptCaption = "caption"
)
