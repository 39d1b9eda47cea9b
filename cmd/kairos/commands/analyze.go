package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/moolen/kairos/internal/config"
	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/triage/synthesis"
)

var (
	analyzeTimeout time.Duration
	analyzePlain   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [prompt]",
	Short: "Run a one-shot triage investigation",
	Long: `Run the triage workflow once for the given prompt and print the
resulting report. The prompt can reference a PR, a namespace, a Jenkins
build URL, or just describe the symptoms.`,
	Example: `  kairos analyze "Check PR https://github.com/acme/shop/pull/123"
  kairos analyze "payments is crashing in production"
  kairos analyze "Build https://jenkins.acme.com/job/shop/42/ failed"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := setupLog(logLevelFlags)
		HandleError(err, "Failed to setup logging")
		logger := logging.GetLogger("main")

		cfg, err := config.Load(configFilePath)
		HandleError(err, "Failed to load configuration")
		HandleError(cfg.Validate(), "Invalid configuration")

		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()

		rt, err := buildRuntime(ctx, cfg)
		HandleError(err, "Failed to initialize triage runtime")
		defer rt.Close()

		prompt := strings.Join(args, " ")
		state, err := rt.engine.Execute(ctx, uuid.NewString(), prompt, nil)
		HandleError(err, "Triage run failed")

		report := synthesis.RenderMarkdown(state)
		if analyzePlain {
			fmt.Println(report)
			return
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			logger.Debug("Falling back to plain output: %v", err)
			fmt.Println(report)
			return
		}
		rendered, err := renderer.Render(report)
		if err != nil {
			fmt.Println(report)
			return
		}
		fmt.Print(rendered)
	},
}

func init() {
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute,
		"Overall timeout for the investigation")
	analyzeCmd.Flags().BoolVar(&analyzePlain, "plain", false,
		"Print raw markdown instead of rendering for the terminal")
}
