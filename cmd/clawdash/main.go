// Package main is the entry point for the clawdash CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/buildinfo"
	clierrors "github.com/musher-dev/clawdash/internal/errors"
	"github.com/musher-dev/clawdash/internal/observability"
	"github.com/musher-dev/clawdash/internal/output"
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	// Restore cursor visibility on panic; the spinner and dashboard hide it.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprint(os.Stderr, "\033[?25h")
			panic(r)
		}
	}()

	out := output.Default()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		out.Verbose, _ = rootCmd.PersistentFlags().GetBool("verbose")

		return handleError(out, err)
	}

	return 0
}

// handleError formats and displays a CLI error, returning the appropriate exit code.
// For CLIError types, it displays the message and hint with styled output.
// For Cobra errors (unknown command, flags), it prints them with suggestions.
func handleError(out *output.Writer, err error) int {
	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		out.Failure("%s", cliErr.Message)

		if cliErr.Hint != "" {
			out.Info("%s", cliErr.Hint)
		}

		if cliErr.Cause != nil {
			out.Debug("cause: %v", cliErr.Cause)
		}

		return cliErr.Code
	}

	errStr := err.Error()

	// Format: "unknown command \"xyz\" for \"clawdash\"\n\nDid you mean this?\n\t..."
	if strings.HasPrefix(errStr, "unknown command") {
		out.Failure("%s", errStr)

		if !strings.Contains(errStr, "--help") {
			out.Info("Run 'clawdash --help' for usage")
		}

		return clierrors.ExitUsage
	}

	if strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "required flag") {
		out.Failure("%s", errStr)
		out.Info("Run 'clawdash --help' for usage")

		return clierrors.ExitUsage
	}

	out.Failure("%s", errStr)

	return clierrors.ExitGeneral
}

func newRootCmd() *cobra.Command {
	var (
		jsonOutput bool
		quiet      bool
		verbose    bool
		noColor    bool
		logLevel   string
		logFormat  string
		logFile    string
		logStderr  string
	)

	out := output.Default()

	rootCmd := &cobra.Command{
		Use:   "clawdash",
		Short: "Observe and control a clawdbot gateway",
		Long: `clawdash reads sessions, scheduled jobs, agents and daemon status from a
local clawdbot gateway. It serves them over HTTP for browser dashboards,
renders them in a live terminal dashboard, and toggles or runs jobs.

Get started:
  clawdash doctor       Check the gateway installation
  clawdash watch        Open the live dashboard
  clawdash serve        Serve the HTTP API on port 3001
  clawdash jobs list    List scheduled jobs`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out.Out = cmd.OutOrStdout()
			out.Err = cmd.ErrOrStderr()
			out.JSON = pickBoolFlagOrEnv(jsonOutput, "CLAWDASH_JSON")
			out.Quiet = pickBoolFlagOrEnv(quiet, "CLAWDASH_QUIET")
			out.Verbose = verbose

			if noColor {
				out.SetNoColor(true)

				color.NoColor = true
			}

			info := buildinfo.Get()

			logCfg := observability.Config{
				Level:          pickFlagOrEnv(logLevel, "CLAWDASH_LOG_LEVEL", "info"),
				Format:         pickFlagOrEnv(logFormat, "CLAWDASH_LOG_FORMAT", "json"),
				LogFile:        pickFlagOrEnv(logFile, "CLAWDASH_LOG_FILE", ""),
				StderrMode:     pickFlagOrEnv(logStderr, "CLAWDASH_LOG_STDERR", "auto"),
				InteractiveTTY: out.Terminal().IsTTY && isInteractiveCommand(cmd.CommandPath()),
				SessionID:      uuid.NewString(),
				CommandPath:    cmd.CommandPath(),
				Version:        info.Version,
				Commit:         info.Commit,
			}

			logger, cleanup, err := observability.NewLogger(&logCfg)
			if err != nil {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("Invalid logging configuration: %v", err),
					Hint:    "Use --log-level (error|warn|info|debug), --log-format (json|text), --log-stderr (auto|on|off), and/or --log-file",
					Code:    clierrors.ExitUsage,
				}
			}

			slog.SetDefault(logger)

			ctx := out.WithContext(cmd.Context())
			ctx = observability.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cleanup != nil {
				cmd.PostRunE = wrapPostRunCleanup(cmd.PostRunE, cleanup)
			}

			telemetryCfg := &observability.TelemetryConfig{
				Enabled: observability.IsTelemetryEnabled(),
				Version: info.Version,
				Commit:  info.Commit,
			}

			telemetryShutdown, telemetryErr := observability.SetupTelemetry(ctx, telemetryCfg)
			if telemetryErr != nil {
				logger.Warn("telemetry initialization failed", slog.String("error", telemetryErr.Error()))
			}

			if telemetryShutdown != nil {
				cmd.PostRunE = wrapNamedPostRunCleanup(cmd.PostRunE, "telemetry resources", func() error {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					return telemetryShutdown(shutdownCtx)
				})
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Minimal output (for CI)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show underlying error causes")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error, warn, info, debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json, text")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Optional structured log file path")
	rootCmd.PersistentFlags().StringVar(&logStderr, "log-stderr", "", "Structured logging to stderr: auto, on, off")

	rootCmd.SuggestionsMinimumDistance = 2

	// Wrap Cobra's raw flag errors in CLIError so they get styled output
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &clierrors.CLIError{
			Message: err.Error(),
			Hint:    fmt.Sprintf("Run '%s --help' for available flags", cmd.CommandPath()),
			Code:    clierrors.ExitUsage,
		}
	})

	// Gateway views
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newJobsCmd())
	rootCmd.AddCommand(newAgentsCmd())
	rootCmd.AddCommand(newStatusCmd())

	// Long-running
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())

	// Utility commands
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func wrapPostRunCleanup(postRun func(*cobra.Command, []string) error, cleanup func() error) func(*cobra.Command, []string) error {
	return wrapNamedPostRunCleanup(postRun, "logger resources", cleanup)
}

func wrapNamedPostRunCleanup(postRun func(*cobra.Command, []string) error, name string, cleanup func() error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var postErr error
		if postRun != nil {
			postErr = postRun(cmd, args)
		}

		if err := cleanup(); err != nil {
			return errors.Join(postErr, fmt.Errorf("cleanup %s: %w", name, err))
		}

		return postErr
	}
}

func pickBoolFlagOrEnv(flagValue bool, envKey string) bool {
	if flagValue {
		return true
	}

	v := strings.ToLower(strings.TrimSpace(os.Getenv(envKey)))

	return v == "1" || v == "true" || v == "yes"
}

func pickFlagOrEnv(flagValue, envKey, fallback string) string {
	trimmed := strings.TrimSpace(flagValue)
	if trimmed != "" {
		return trimmed
	}

	if envValue := strings.TrimSpace(os.Getenv(envKey)); envValue != "" {
		return envValue
	}

	return fallback
}

// isInteractiveCommand reports commands that own the terminal, where log
// lines on stderr would corrupt the screen.
func isInteractiveCommand(path string) bool {
	return path == "clawdash watch" || strings.HasPrefix(path, "clawdash watch ")
}

// noArgs returns a Cobra positional-arg validator that rejects any arguments
// with a clear, user-friendly message (unlike cobra.NoArgs which says "unknown command").
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &clierrors.CLIError{
			Message: fmt.Sprintf("'%s' accepts no arguments", cmd.CommandPath()),
			Hint:    fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()),
			Code:    clierrors.ExitUsage,
		}
	}

	return nil
}

// jobIDArg requires exactly one positional job id.
func jobIDArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &clierrors.CLIError{
			Message: fmt.Sprintf("'%s' takes exactly one job id", cmd.CommandPath()),
			Hint:    "Run 'clawdash jobs list' to see job ids",
			Code:    clierrors.ExitUsage,
		}
	}

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show version information",
		Long:    `Display the clawdash binary version, git commit, build date, and Go toolchain.`,
		Example: `  clawdash version
  clawdash version --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			info := buildinfo.Get()

			return out.Emit(info, func() {
				out.Print("clawdash %s\n", info.Version)
				out.Print("  commit: %s\n", info.Commit)
				out.Print("  built:  %s\n", info.Date)
				out.Print("  go:     %s (%s)\n", info.GoVersion, info.Platform)
			})
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Write a completion script for bash, zsh, fish, or powershell to stdout.
Source it from your shell profile to complete commands and flags.`,
		Example: `  clawdash completion bash > /etc/bash_completion.d/clawdash
  clawdash completion zsh > "${fpath[1]}/_clawdash"
  clawdash completion fish > ~/.config/fish/completions/clawdash.fish`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			root := cmd.Root()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}
