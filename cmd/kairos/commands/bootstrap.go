package commands

import (
	"context"
	"fmt"

	"github.com/moolen/kairos/internal/agents/github"
	"github.com/moolen/kairos/internal/agents/jenkins"
	k8sagent "github.com/moolen/kairos/internal/agents/kubernetes"
	"github.com/moolen/kairos/internal/config"
	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/provider"
	"github.com/moolen/kairos/internal/rag"
	"github.com/moolen/kairos/internal/resolver"
	"github.com/moolen/kairos/internal/triage/correlation"
	"github.com/moolen/kairos/internal/triage/routing"
	"github.com/moolen/kairos/internal/triage/synthesis"
	"github.com/moolen/kairos/internal/triage/workflow"
)

// triageRuntime holds the assembled engine plus the handles that need
// explicit teardown. Shared by the server, analyze and mcp commands.
type triageRuntime struct {
	cfg      *config.Config
	engine   *workflow.Engine
	resolver *resolver.Resolver
	store    *rag.Store        // nil when the incident store is disabled
	github   *github.MCPClient // nil when the GitHub agent is disabled
	logger   *logging.Logger
}

// Close releases external connections. Safe to call once.
func (r *triageRuntime) Close() {
	if r.github != nil {
		if err := r.github.Close(); err != nil {
			r.logger.Warn("Error closing GitHub MCP client: %v", err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Warn("Error closing incident store: %v", err)
		}
	}
}

// buildRuntime assembles the workflow engine from configuration. Optional
// collaborators that fail to initialize are logged and left out; the
// corresponding workflow node then reports an agent failure instead of
// blocking the whole service.
func buildRuntime(ctx context.Context, cfg *config.Config) (*triageRuntime, error) {
	logger := logging.GetLogger("bootstrap")

	llm, err := buildProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build LLM provider: %w", err)
	}
	logger.Info("Using LLM provider %s (model %s)", llm.Name(), llm.Model())

	rt := &triageRuntime{cfg: cfg, logger: logger}

	services := workflow.Services{
		Router:      routing.New(llm),
		Correlator:  correlation.New(llm),
		Synthesizer: synthesis.New(llm),
		Retriever:   rag.NopRetriever{},
	}

	table := resolver.DefaultTable()
	if cfg.MappingTablePath != "" {
		loaded, err := resolver.LoadMappingTable(cfg.MappingTablePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load mapping table %s: %w", cfg.MappingTablePath, err)
		}
		table = loaded
	}
	rt.resolver = resolver.New(table)
	services.Resolver = rt.resolver

	if cfg.GitHub.Enabled {
		mcpClient, err := github.NewMCPClient(ctx, cfg.GitHub.MCPCommand, cfg.GitHub.MCPArgs, nil)
		if err != nil {
			logger.Warn("GitHub MCP server unavailable, GitHub analysis will report failures: %v", err)
		} else {
			rt.github = mcpClient
			services.GitHub = github.NewAnalyzer(mcpClient, llm, cfg.GitHub.DefaultOwner, cfg.GitHub.DefaultRepo)
		}
	}

	if cfg.Kubernetes.Enabled {
		k8sClient, err := k8sagent.NewClient()
		if err != nil {
			logger.Warn("Kubernetes client unavailable, cluster debugging will report failures: %v", err)
		} else {
			services.Kubernetes = k8sagent.NewDebugger(k8sClient, llm)
		}
	}

	if cfg.Jenkins.Enabled {
		jenkinsClient := jenkins.NewClient(cfg.Jenkins.Username, cfg.Jenkins.APIToken())
		services.Jenkins = jenkins.NewAnalyzer(jenkinsClient, llm)
	}

	if cfg.RAG.Enabled {
		storeCfg := rag.DefaultStoreConfig()
		storeCfg.Host = cfg.RAG.Host
		storeCfg.Port = cfg.RAG.Port
		storeCfg.Password = cfg.RAG.Password
		if cfg.RAG.GraphName != "" {
			storeCfg.GraphName = cfg.RAG.GraphName
		}
		store := rag.NewStore(storeCfg)
		if err := store.Connect(ctx); err != nil {
			logger.Warn("Incident store unavailable, historical lookups disabled: %v", err)
		} else if err := store.InitializeSchema(ctx); err != nil {
			logger.Warn("Incident store schema initialization failed, historical lookups disabled: %v", err)
			_ = store.Close()
		} else {
			rt.store = store
			services.Retriever = store
		}
	}

	engine, err := workflow.NewEngine(services)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.engine = engine
	return rt, nil
}

// buildProvider constructs the LLM provider selected in configuration.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	pcfg := provider.Config{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}

	switch cfg.LLM.Provider {
	case "anthropic":
		if key := cfg.LLM.APIKey(); key != "" {
			return provider.NewAnthropicProviderWithKey(key, pcfg)
		}
		return provider.NewAnthropicProvider(pcfg)
	case "azure-foundry":
		return provider.NewAzureFoundryProvider(provider.AzureFoundryConfig{
			Endpoint: cfg.LLM.Endpoint,
			APIKey:   cfg.LLM.APIKey(),
			Config:   pcfg,
		})
	case "mock":
		return provider.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
	}
}
