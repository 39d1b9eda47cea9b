package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider using the Anthropic Claude API.
type AnthropicProvider struct {
	client anthropic.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider. The API key is read
// from the ANTHROPIC_API_KEY environment variable by default.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	applyDefaults(&cfg)
	return &AnthropicProvider{
		client: anthropic.NewClient(),
		config: cfg,
	}, nil
}

// NewAnthropicProviderWithKey creates a new Anthropic provider with an
// explicit API key.
func NewAnthropicProviderWithKey(apiKey string, cfg Config) (*AnthropicProvider, error) {
	applyDefaults(&cfg)
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		config: cfg,
	}, nil
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
}

// Complete implements Provider.Complete for Anthropic.
func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(p.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var parts []string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			parts = append(parts, resp.Content[i].Text)
		}
	}
	return strings.Join(parts, ""), nil
}

// Name implements Provider.Name.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Model implements Provider.Model.
func (p *AnthropicProvider) Model() string { return p.config.Model }
