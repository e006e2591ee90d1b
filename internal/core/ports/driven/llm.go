package driven

import "context"

// LLMService is a hosted text model. It is optional: without one, answers
// stay extractive and the LLM translation backend is not registered.
//
// Anthropic (anthropic-sdk-go) and Gemini (genai) implement it; ratelimit
// wraps either one.
type LLMService interface {
	// Generate completes a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat continues a conversation. A "system" message, if present, must
	// come first.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName is the configured model, as sent to the provider.
	ModelName() string

	// Ping sends the smallest request the provider accepts.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes one Generate call. Zero values take the adapter's
// defaults.
type GenerateOptions struct {
	MaxTokens int

	// Temperature is 0 for translation, where output must be reproducible.
	Temperature float64

	// System is sent as the provider's system instruction.
	System string
}

// ChatMessage is one turn. Role is "system", "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes one Chat call.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
