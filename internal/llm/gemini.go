package llm

import "fmt"

// GeminiBaseURL is Google's OpenAI-compatible endpoint
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// NewGeminiProvider creates a provider for Google Gemini models.
// Gemini accepts the OpenAI chat completions protocol, so the OpenAI client is
// reused with a different base URL.
func NewGeminiProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = GeminiBaseURL
	}
	return newChatProvider("gemini", config, DefaultGeminiModel), nil
}
