// Package cli implements the outliner command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/config"
	"github.com/vampirenirmal/outliner/internal/telemetry"
)

// TransportFactory builds the model transport for a run.
type TransportFactory func(cfg *config.Config, logger *slog.Logger) agent.Transport

// App holds the state shared by every command.
type App struct {
	Out    io.Writer
	ErrOut io.Writer

	// NewTransport defaults to the OpenAI-compatible HTTP client.
	NewTransport TransportFactory

	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func NewApp(out, errOut io.Writer) *App {
	return &App{
		Out:          out,
		ErrOut:       errOut,
		NewTransport: httpTransport,
	}
}

func httpTransport(cfg *config.Config, logger *slog.Logger) agent.Transport {
	return agent.NewClient(cfg.LLM.APIKey,
		agent.WithBaseURL(cfg.LLM.BaseURL),
		agent.WithRetry(cfg.LLM.MaxRetries),
		agent.WithTimeout(cfg.LLM.Timeout),
		agent.WithRateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		agent.WithLogger(logger.With("component", "llm_client")),
	)
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "outliner",
		Short: "Generate structured story outlines with a language model",
		Long: `outliner grows a one-line premise into a full story outline:
  1. general       - title, themes, genres and synopsis
  2. structure     - the beats of the chosen story structure
  3. revision      - premise rewritten to match the structure
  4. worldbuilding - setting details
  5. characters    - the cast
  6. chapters      - chapter breakdown mapped to structure beats
  7. scenes        - scenes and story beats for every chapter

Progress is saved after every stage, so an interrupted run can be resumed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/outliner/config.yaml)")
	flags.StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&app.logFormat, "log-format", "", "log format: text or json")

	root.SetOut(app.Out)
	root.SetErr(app.ErrOut)
	root.AddCommand(
		newGenerateCommand(app),
		newResumeCommand(app),
		newShowCommand(app),
		newStructuresCommand(app),
		newConfigCommand(app),
	)
	return root
}

// setup loads the configuration and installs the logger as the slog
// default. Flags win over the config file.
func (a *App) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	logger, err := telemetry.NewLogger(level, format, a.ErrOut)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	return RunApp(ctx, NewApp(out, errOut), args)
}

func RunApp(ctx context.Context, app *App, args []string) int {
	root := NewRootCommand(app)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(app.ErrOut, "Error:", err)
		return ExitCode(err)
	}
	return ExitOK
}
