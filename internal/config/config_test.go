package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.LLM.APIKeyEnv)
	assert.True(t, cfg.GitHub.Enabled)
	assert.Equal(t, "github-mcp-server", cfg.GitHub.MCPCommand)
	assert.False(t, cfg.RAG.Enabled)
	assert.Equal(t, "kairos_incidents", cfg.RAG.GraphName)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port too low", func(c *Config) { c.APIPort = 0 }, "APIPort"},
		{"port too high", func(c *Config) { c.APIPort = 70000 }, "APIPort"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "openai" }, "LLM.Provider"},
		{"azure without endpoint", func(c *Config) { c.LLM.Provider = "azure-foundry" }, "LLM.Endpoint"},
		{"github without command", func(c *Config) { c.GitHub.MCPCommand = "" }, "GitHub.MCPCommand"},
		{"rag without host", func(c *Config) { c.RAG.Enabled = true; c.RAG.Host = "" }, "RAG.Host"},
		{"rag bad port", func(c *Config) { c.RAG.Enabled = true; c.RAG.Port = -1 }, "RAG.Port"},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, "Tracing.Endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAcceptsVariants(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "mock"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Provider = "azure-foundry"
	cfg.LLM.Endpoint = "https://foundry.example.com"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.GitHub.Enabled = false
	cfg.GitHub.MCPCommand = ""
	assert.NoError(t, cfg.Validate())
}

func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("KAIROS_TEST_KEY", "secret")

	c := LLMConfig{APIKeyEnv: "KAIROS_TEST_KEY"}
	assert.Equal(t, "secret", c.APIKey())

	assert.Empty(t, LLMConfig{}.APIKey())
	assert.Empty(t, LLMConfig{APIKeyEnv: "KAIROS_TEST_UNSET"}.APIKey())
}

func TestAPITokenResolution(t *testing.T) {
	t.Setenv("KAIROS_TEST_TOKEN", "jenkins-token")

	c := JenkinsConfig{APITokenEnv: "KAIROS_TEST_TOKEN"}
	assert.Equal(t, "jenkins-token", c.APIToken())
	assert.Empty(t, JenkinsConfig{}.APIToken())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.APIPort)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api_port: 9090
log_level: debug
llm:
  provider: mock
jenkins:
  enabled: false
rag:
  enabled: true
  host: falkordb.internal
  port: 6380
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.False(t, cfg.Jenkins.Enabled)
	assert.True(t, cfg.RAG.Enabled)
	assert.Equal(t, "falkordb.internal", cfg.RAG.Host)
	assert.Equal(t, 6380, cfg.RAG.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, "github-mcp-server", cfg.GitHub.MCPCommand)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_port: 0\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
