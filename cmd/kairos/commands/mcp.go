package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/moolen/kairos/internal/config"
	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the triage tool over MCP stdio",
	Long: `Run an MCP server on stdin/stdout exposing the "triage" tool, for use
by MCP-capable clients and agents.`,
	Run: func(cmd *cobra.Command, args []string) {
		// stdout carries the MCP protocol; keep logs on stderr only.
		logging.RedirectToStderr()
		err := setupLog(logLevelFlags)
		HandleError(err, "Failed to setup logging")
		logger := logging.GetLogger("main")

		cfg, err := config.Load(configFilePath)
		HandleError(err, "Failed to load configuration")
		HandleError(cfg.Validate(), "Invalid configuration")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rt, err := buildRuntime(ctx, cfg)
		HandleError(err, "Failed to initialize triage runtime")
		defer rt.Close()

		mcpServer := mcp.NewServer(rt.engine, Version)
		logger.Info("Starting MCP server on stdio")
		if err := mcp.ServeStdio(mcpServer); err != nil {
			HandleError(err, "MCP server failed")
		}
	},
}
