// Package provider implements LLM provider abstractions for Kairos.
//
// The triage workflow only needs single-shot completions (classification,
// correlation, synthesis), so the interface is a plain Complete call rather
// than a conversational loop.
package provider

import (
	"context"
	"time"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends one prompt pair to the model and returns the text
	// response. May fail or time out; callers are expected to degrade to
	// their deterministic fallbacks.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name returns the provider name for logging and display.
	Name() string

	// Model returns the model identifier being used.
	Model() string
}

// Config contains common configuration for providers.
type Config struct {
	// Model is the model identifier (e.g., "claude-sonnet-4-5-20250929")
	Model string

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic)
	Temperature float64

	// Timeout bounds a single completion call.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for triage completions.
func DefaultConfig() Config {
	return Config{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   4096,
		Temperature: 0.0, // deterministic for triage
		Timeout:     120 * time.Second,
	}
}
