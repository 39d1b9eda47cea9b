// Package config holds the service configuration: flags and environment
// assemble a Config, YAML files can override it, and Validate gates startup.
package config

import (
	"os"
	"time"
)

// LLMConfig configures the model provider shared by all agents.
type LLMConfig struct {
	// Provider selects the backend: "anthropic", "azure-foundry" or "mock".
	Provider string `yaml:"provider"`

	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`

	// Endpoint is required for azure-foundry.
	Endpoint string `yaml:"endpoint"`

	// APIKeyEnv names the environment variable carrying the API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// APIKey resolves the configured key from the environment.
func (c LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// GitHubConfig configures the GitHub agent's MCP server connection.
type GitHubConfig struct {
	Enabled bool `yaml:"enabled"`

	// MCPCommand launches the GitHub MCP server (stdio transport).
	MCPCommand string   `yaml:"mcp_command"`
	MCPArgs    []string `yaml:"mcp_args"`

	// DefaultOwner/DefaultRepo resolve bare "PR #123" references.
	DefaultOwner string `yaml:"default_owner"`
	DefaultRepo  string `yaml:"default_repo"`
}

// JenkinsConfig configures the Jenkins agent.
type JenkinsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Username    string `yaml:"username"`
	APITokenEnv string `yaml:"api_token_env"`
}

// APIToken resolves the Jenkins token from the environment.
func (c JenkinsConfig) APIToken() string {
	if c.APITokenEnv == "" {
		return ""
	}
	return os.Getenv(c.APITokenEnv)
}

// KubernetesConfig configures the Kubernetes agent.
type KubernetesConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RAGConfig configures the historical incident store.
type RAGConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Password  string `yaml:"password"`
	GraphName string `yaml:"graph_name"`
}

// TracingConfig configures OpenTelemetry trace export.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Config is the top-level service configuration.
type Config struct {
	// APIPort is the port the HTTP API listens on.
	APIPort int `yaml:"api_port"`

	// LogLevel is the logging level (debug, info, warn, error, fatal).
	LogLevel string `yaml:"log_level"`

	// MappingTablePath points at the namespace mapping table YAML. Empty
	// means the built-in defaults without hot reload.
	MappingTablePath string `yaml:"mapping_table_path"`

	LLM        LLMConfig        `yaml:"llm"`
	GitHub     GitHubConfig     `yaml:"github"`
	Jenkins    JenkinsConfig    `yaml:"jenkins"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	RAG        RAGConfig        `yaml:"rag"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		APIPort:  8080,
		LogLevel: "info",
		LLM: LLMConfig{
			Provider:  "anthropic",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		GitHub: GitHubConfig{
			Enabled:    true,
			MCPCommand: "github-mcp-server",
			MCPArgs:    []string{"stdio"},
		},
		Jenkins: JenkinsConfig{
			Enabled:     true,
			APITokenEnv: "JENKINS_API_TOKEN",
		},
		Kubernetes: KubernetesConfig{Enabled: true},
		RAG: RAGConfig{
			Host:      "localhost",
			Port:      6379,
			GraphName: "kairos_incidents",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}

	switch c.LLM.Provider {
	case "anthropic", "mock":
	case "azure-foundry":
		if c.LLM.Endpoint == "" {
			return NewConfigError("LLM.Endpoint must be set for the azure-foundry provider")
		}
	default:
		return NewConfigError("LLM.Provider must be one of: anthropic, azure-foundry, mock")
	}

	if c.GitHub.Enabled && c.GitHub.MCPCommand == "" {
		return NewConfigError("GitHub.MCPCommand must be set when the GitHub agent is enabled")
	}
	if c.RAG.Enabled {
		if c.RAG.Host == "" {
			return NewConfigError("RAG.Host must be set when the incident store is enabled")
		}
		if c.RAG.Port < 1 || c.RAG.Port > 65535 {
			return NewConfigError("RAG.Port must be between 1 and 65535")
		}
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return NewConfigError("Tracing.Endpoint must be set when tracing is enabled")
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
