// Command sgengine serves the strokes-gained engine and its operator tooling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/sgengine/internal/config"
	"github.com/okian/sgengine/pkg/logger"
	"github.com/okian/sgengine/pkg/metrics"
	"github.com/spf13/cobra"
)

// All linker flags are set at build time.
var (
	version = "dev"
	commit  = "none"
)

// cfg holds the validated configuration once PersistentPreRunE has run.
var cfg *config.Config

// Root flags.
var (
	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:               "sgengine",
	Short:             "Strokes-gained computation and leaderboards for golf rounds.",
	Version:           version + " (" + commit + ")",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("SGE_CONFIG"), "YAML config file (env SGE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error; overrides log_level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "text or json; overrides log_format")

	rootCmd.AddCommand(serveCmd, baselineCmd, teamCmd, leaderboardCmd, simulateCmd)
}

// setup loads configuration (defaults -> file -> env -> flags) and applies
// the logging settings.
func setup(cmd *cobra.Command, _ []string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	loaded, err := config.LoadFile(cmd.Context(), configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	if logFormat != "" {
		loaded.LogFormat = logFormat
	}

	if err := logger.SetFormat(loaded.LogFormat); err != nil {
		return err
	}
	if err := logger.SetLevelString(loaded.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", loaded.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.SetEnabled(loaded.MetricsEnabled)
	cfg = loaded
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
