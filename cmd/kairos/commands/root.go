package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moolen/kairos/internal/logging"
)

const Version = "0.1.0"

var (
	logLevelFlags  []string
	configFilePath string
)

var rootCmd = &cobra.Command{
	Use:   "kairos",
	Short: "Kairos - multi-agent DevOps triage",
	Long: `Kairos investigates deployment and build problems by routing a prompt
through specialist agents (GitHub, Kubernetes, Jenkins) and synthesizing
their findings into a single diagnosis with action items.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Supports per-package log levels: --log-level debug --log-level resolver=debug
	rootCmd.PersistentFlags().StringSliceVar(&logLevelFlags, "log-level",
		[]string{"info"},
		"Log level for packages. Use 'default=level' for default, or 'package.name=level' for per-package.\n"+
			"Examples: --log-level debug (all), --log-level workflow=debug --log-level rag.store=warn")
	rootCmd.PersistentFlags().StringVar(&configFilePath, "config", "",
		"Path to the YAML configuration file (defaults apply when omitted)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// HandleError prints error and exits
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}

// setupLog initializes logging from the parsed --log-level flags.
// Priority: CLI flags > LOG_LEVEL_* environment variables > default.
func setupLog(flags []string) error {
	defaultLevel, packageLevels, err := parseLogLevelFlags(flags)
	if err != nil {
		return err
	}
	return logging.Initialize(defaultLevel, packageLevels)
}

// parseLogLevelFlags merges LOG_LEVEL_* environment variables (lower
// priority) with CLI flags. Flag format: "debug" sets the default level,
// "rag.store=debug" sets a per-package level. Env format:
// LOG_LEVEL_RAG_STORE=debug (uppercased, dots to underscores).
func parseLogLevelFlags(flags []string) (string, map[string]string, error) {
	result := make(map[string]string)

	for _, envPair := range os.Environ() {
		if !strings.HasPrefix(envPair, "LOG_LEVEL_") {
			continue
		}
		parts := strings.SplitN(envPair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		result[envKeyToPackageName(parts[0])] = parts[1]
	}

	for _, flag := range flags {
		if !strings.Contains(flag, "=") {
			result["default"] = flag
			continue
		}
		parts := strings.SplitN(flag, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}

	defaultLevel := "info"
	if level, exists := result["default"]; exists {
		defaultLevel = level
		delete(result, "default")
	}

	if err := validateLogLevel(defaultLevel); err != nil {
		return "", nil, err
	}
	for pkg, level := range result {
		if err := validateLogLevel(level); err != nil {
			return "", nil, fmt.Errorf("invalid log level for package %q: %v", pkg, err)
		}
	}

	return defaultLevel, result, nil
}

// envKeyToPackageName converts LOG_LEVEL_RAG_STORE -> rag.store
func envKeyToPackageName(envKey string) string {
	name := strings.TrimPrefix(envKey, "LOG_LEVEL_")
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

func validateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", level)
	}
	return nil
}
