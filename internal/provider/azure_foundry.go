package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AzureFoundryProvider implements Provider using Azure AI Foundry with
// Anthropic models. Azure AI Foundry uses the same authentication as the
// standard Anthropic API:
//   - "x-api-key" header for authentication
//   - base URL format: https://{resource}.services.ai.azure.com/anthropic/
type AzureFoundryProvider struct {
	client   *http.Client
	config   AzureFoundryConfig
	endpoint string
}

// AzureFoundryConfig contains configuration for Azure AI Foundry.
type AzureFoundryConfig struct {
	// Endpoint is the Azure AI Foundry endpoint URL
	// Format: https://{resource}.services.ai.azure.com
	Endpoint string

	// APIKey is the Azure AI Foundry API key
	APIKey string

	Config
}

// NewAzureFoundryProvider creates a new Azure AI Foundry provider.
func NewAzureFoundryProvider(cfg AzureFoundryConfig) (*AzureFoundryProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("Azure AI Foundry endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Azure AI Foundry API key is required")
	}
	applyDefaults(&cfg.Config)

	// Normalize endpoint - ensure it ends with /anthropic
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if !strings.HasSuffix(endpoint, "/anthropic") {
		endpoint += "/anthropic"
	}

	return &AzureFoundryProvider{
		client:   &http.Client{Timeout: cfg.Timeout},
		config:   cfg,
		endpoint: endpoint,
	}, nil
}

type foundryRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
	System      string           `json:"system,omitempty"`
	Messages    []foundryMessage `json:"messages"`
}

type foundryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type foundryResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Provider.Complete for Azure AI Foundry.
func (p *AzureFoundryProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := foundryRequest{
		Model:       p.config.Model,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
		System:      systemPrompt,
		Messages:    []foundryMessage{{Role: "user", Content: userPrompt}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.endpoint + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed foundryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("azure foundry error (%s): %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("azure foundry returned status %d", resp.StatusCode)
	}

	var parts []string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, ""), nil
}

// Name implements Provider.Name.
func (p *AzureFoundryProvider) Name() string { return "azure-foundry" }

// Model implements Provider.Model.
func (p *AzureFoundryProvider) Model() string { return p.config.Model }

// SetHTTPClient overrides the HTTP client; used in tests.
func (p *AzureFoundryProvider) SetHTTPClient(c *http.Client) { p.client = c }
