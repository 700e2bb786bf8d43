// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tracescore/internal/browser"
	"github.com/xkilldash9x/tracescore/internal/config"
	"github.com/xkilldash9x/tracescore/internal/job"
	"github.com/xkilldash9x/tracescore/internal/observability"
	"github.com/xkilldash9x/tracescore/internal/orchestrator"
	"github.com/xkilldash9x/tracescore/internal/reporting"
)

type contextKey string

const configKey contextKey = "config"

// newLauncher builds the browser launcher for a run. Tests replace it to avoid Chrome.
var newLauncher = func(cfg config.BrowserConfig, logger *zap.Logger) orchestrator.Launcher {
	mgr := browser.NewManager(cfg, logger)
	return orchestrator.LauncherFunc(func(ctx context.Context) (orchestrator.PageSession, error) {
		s, err := mgr.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// NewRootCommand builds a fresh command tree. Nothing is shared between trees, so tests
// can execute as many as they like.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "tracescore [flags] <" + strings.Join(job.ModeNames(), "|") + ">",
		Short: "Scores an ICFP 2018 nanobot trace on the official trace checker.",
		Long: `tracescore uploads a trace (and the source/target models the mode needs) to the
official execution page, waits for the checker to finish, and prints the result.

Input files are taken from the configuration (inputs.source, inputs.target, inputs.trace)
and default to /app/source.mdl, /app/target.mdl and /app/trace.nbt.`,
		Version:       Version,
		ValidArgs:     job.ModeNames(),
		Args:          validateModeArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting tracescore", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
		RunE: runJob,
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	cmd.Flags().String("preset", "", "poll preset: structured or raw (default structured)")
	cmd.Flags().Duration("interval", 0, "delay between status reads (overrides the preset)")
	cmd.Flags().Int("max-attempts", 0, "status reads before giving up (overrides the preset)")
	cmd.Flags().Bool("headless", true, "run Chrome without a window")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// validateModeArgs requires exactly one job mode. It runs before configuration is loaded,
// so an invalid invocation never touches the browser.
func validateModeArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &job.Error{
			Code: job.ErrCodeInvalidMode,
			Err:  fmt.Errorf("expected exactly one of %s, got %d arguments", strings.Join(job.ModeNames(), ", "), len(args)),
		}
	}
	_, err := job.ParseMode(args[0])
	return err
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		return errors.New("configuration missing from command context")
	}
	mode, err := job.ParseMode(args[0])
	if err != nil {
		return err
	}

	resultMode, err := job.ParseResultMode(cfg.Poll.ResultMode)
	if err != nil {
		return err
	}
	reporter, err := reporting.New(resultMode, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(cfg, logger, newLauncher(cfg.Browser, logger), reporter)
	if err != nil {
		return err
	}
	_, err = orch.Run(ctx, mode)
	return err
}

// Execute runs the root command with the signal-aware context from main. Errors are
// logged here; main only maps them to an exit code.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}

	if observability.Initialized() {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	} else {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		if errors.Is(err, job.ErrInvalidMode) {
			fmt.Fprintln(root.ErrOrStderr(), root.UseLine())
		}
	}
	return err
}

// initializeConfig reads the config file and environment and binds command-line flags.
// Precedence: flags, env (TRACESCORE_*), config file, defaults.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := config.BindEnv(v); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}

	// Job flags live on the root command; subcommands such as version don't have them.
	flags := cmd.Root().Flags()
	for key, name := range map[string]string{
		"poll.preset":       "preset",
		"poll.interval":     "interval",
		"poll.max_attempts": "max-attempts",
		"browser.headless":  "headless",
	} {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}
