package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jadescript/jadescript-go/analyzer"
	"github.com/jadescript/jadescript-go/config"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "jadescriptc",
	Short: "Semantic checker for Jadescript agent programs",
	Long: `jadescriptc parses Jadescript sources, resolves ontology, agent and
behaviour declarations, and reports semantic diagnostics.

Settings are read from jadescript.yaml in the current directory or one of
its parents; flags take precedence.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: search for jadescript.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies the persistent flags and builds
// the logger
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	bootstrap := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg, err := config.NewLoader(bootstrap).Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func newAnalyzer(cfg *config.Config, logger *slog.Logger) *analyzer.Analyzer {
	return analyzer.New(analyzer.Options{
		Logger:      logger,
		Strict:      cfg.IsStrict(),
		Module:      cfg.Analysis.Module,
		Parallelism: cfg.Analysis.Parallelism,
	})
}
