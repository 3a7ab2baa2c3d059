package llm

import (
	"context"
)

// Message is one entry of a chat history in a provider-agnostic format.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option sets optional request parameters such as temperature or token limits.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider is the contract every model backend satisfies. The container
// builds two instances of it: a heavy model that drives the background
// question pipeline (generation, adaptation, path prediction) and a light
// model for interactive replies and routing, where latency matters more
// than depth.
type LLMProvider interface {
	// Chat sends the conversation history and returns the next assistant turn.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate runs a single standalone prompt, used by the pipeline stages
	// that do not carry chat history.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
