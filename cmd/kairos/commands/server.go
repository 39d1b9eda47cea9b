package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/moolen/kairos/internal/apiserver"
	"github.com/moolen/kairos/internal/config"
	"github.com/moolen/kairos/internal/lifecycle"
	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/mcp"
	"github.com/moolen/kairos/internal/resolver"
	"github.com/moolen/kairos/internal/tracing"
)

var (
	apiPort          int
	mappingTablePath string
	tracingEnabled   bool
	tracingEndpoint  string
	mcpHTTPEnabled   bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Kairos triage server",
	Long: `Start the Kairos server exposing the triage workflow over HTTP
(POST /v1/triage) and, optionally, as a streamable-HTTP MCP endpoint.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := setupLog(logLevelFlags)
		HandleError(err, "Failed to setup logging")
		logger := logging.GetLogger("main")

		cfg, err := config.Load(configFilePath)
		HandleError(err, "Failed to load configuration")
		applyServerFlags(cmd, cfg)
		HandleError(cfg.Validate(), "Invalid configuration")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rt, err := buildRuntime(ctx, cfg)
		HandleError(err, "Failed to initialize triage runtime")
		defer rt.Close()

		tracingProvider, err := tracing.NewTracingProvider(tracing.Config{
			Enabled:  cfg.Tracing.Enabled,
			Endpoint: cfg.Tracing.Endpoint,
		})
		HandleError(err, "Failed to initialize tracing")

		var mcpServer *server.MCPServer
		if mcpHTTPEnabled {
			mcpServer = mcp.NewServer(rt.engine, Version)
		}
		apiServer := apiserver.New(cfg.APIPort, rt.engine, nil, mcpServer)

		manager := lifecycle.NewManager()
		err = manager.Register(tracingProvider)
		HandleError(err, "Failed to register tracing provider")

		if cfg.MappingTablePath != "" {
			watcher, err := resolver.NewTableWatcher(cfg.MappingTablePath, rt.resolver, 0)
			HandleError(err, "Failed to create mapping table watcher")
			err = manager.Register(&tableWatcherComponent{watcher})
			HandleError(err, "Failed to register mapping table watcher")
		}

		err = manager.Register(apiServer, tracingProvider)
		HandleError(err, "Failed to register API server")

		err = manager.Start(ctx)
		HandleError(err, "Failed to start components")
		logger.Info("Kairos server started on port %d", cfg.APIPort)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("Received signal %v, shutting down...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := manager.Stop(shutdownCtx); err != nil {
			logger.Error("Shutdown finished with errors: %v", err)
		}
		logger.Info("Shutdown complete")
	},
}

// applyServerFlags overlays explicitly-set CLI flags onto the loaded config.
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("api-port") {
		cfg.APIPort = apiPort
	}
	if cmd.Flags().Changed("mapping-table") {
		cfg.MappingTablePath = mappingTablePath
	}
	if cmd.Flags().Changed("tracing-enabled") {
		cfg.Tracing.Enabled = tracingEnabled
	}
	if cmd.Flags().Changed("tracing-endpoint") {
		cfg.Tracing.Endpoint = tracingEndpoint
	}
}

// tableWatcherComponent adapts the resolver's file watcher to the lifecycle
// manager.
type tableWatcherComponent struct {
	*resolver.TableWatcher
}

func (c *tableWatcherComponent) Stop(ctx context.Context) error {
	return c.TableWatcher.Stop()
}

func (c *tableWatcherComponent) Name() string {
	return "Mapping Table Watcher"
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 8080,
		"Port for the HTTP API")
	serverCmd.Flags().StringVar(&mappingTablePath, "mapping-table", "",
		"Path to the namespace mapping table YAML (hot-reloaded on change)")
	serverCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false,
		"Enable OpenTelemetry trace export")
	serverCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "",
		"OTLP gRPC endpoint for trace export (e.g. otel-collector:4317)")
	serverCmd.Flags().BoolVar(&mcpHTTPEnabled, "mcp-http", true,
		"Expose the MCP triage tool at /v1/mcp over streamable HTTP")
}
