package driven

// PromptStore provides the LLM prompt templates. Templates are
// fmt format strings taking the arguments listed in PromptArgs.
type PromptStore interface {
	// Load returns the template for name. Names outside PromptArgs
	// are ErrNotFound.
	Load(name string) (string, error)
}

// Well-known prompt names used throughout the application.
const (
	// PromptTranslate instructs the model to translate one segment.
	// Placeholders: %s (source language), %s (target language), %s (text).
	PromptTranslate = "translate"

	// PromptAnswerSystem is the system prompt for grounded answers.
	// This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswer asks a question over numbered context passages.
	// Placeholders: %s (passages), %s (question).
	PromptAnswer = "answer"
)

// PromptArgs is how many %s arguments each prompt is formatted with.
var PromptArgs = map[string]int{
	PromptTranslate:    3,
	PromptAnswerSystem: 0,
	PromptAnswer:       2,
}

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
