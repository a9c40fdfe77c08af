package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jadescript/jadescript-go/config"
	"github.com/jadescript/jadescript-go/diagnostic"
	"github.com/jadescript/jadescript-go/internal/sources"
)

// errCheckFailed makes the process exit non-zero once diagnostics are printed
var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Analyze sources and report diagnostics",
	Long: `Analyze Jadescript files and print their diagnostics.

Directories are searched recursively for sources.

Examples:
  # Check every source under ./agents
  jadescriptc check ./agents

  # Emit JSON and treat any error as fatal
  jadescriptc check --format json --strict market.jade

  # Re-check whenever a source changes
  jadescriptc check --watch ./agents`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := applyCheckFlags(cmd, cfg); err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return runCheck(cmd.Context(), cfg, logger, args, cmd.OutOrStdout())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if err := runCheck(ctx, cfg, logger, args, cmd.OutOrStdout()); err != nil && !errors.Is(err, errCheckFailed) {
			return err
		}
		return sources.NewWatcher(args, cfg.Analysis.Extensions, logger).Run(ctx, func(changed []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "--- %s changed\n", strings.Join(changed, ", "))
			if err := runCheck(ctx, cfg, logger, args, cmd.OutOrStdout()); err != nil && !errors.Is(err, errCheckFailed) {
				logger.Error("Check failed", slog.String("error", err.Error()))
			}
		})
	},
}

func init() {
	checkCmd.Flags().String("format", "", "Output format: text or json")
	checkCmd.Flags().Bool("strict", false, "Fail on any error diagnostic")
	checkCmd.Flags().Bool("no-color", false, "Disable colored output")
	checkCmd.Flags().Int("parallelism", 0, "Maximum files analyzed at once (0 = unbounded)")
	checkCmd.Flags().Bool("watch", false, "Re-run the check when sources change")
	rootCmd.AddCommand(checkCmd)
}

func applyCheckFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("strict") {
		strict, _ := flags.GetBool("strict")
		cfg.Analysis.Strict = &strict
	}
	if flags.Changed("no-color") {
		noColor, _ := flags.GetBool("no-color")
		color := !noColor
		cfg.Output.Color = &color
	}
	if flags.Changed("parallelism") {
		cfg.Analysis.Parallelism, _ = flags.GetInt("parallelism")
	}
	return cfg.Validate()
}

// runCheck analyzes paths and writes their diagnostics to out. It returns
// errCheckFailed when any error diagnostic was reported.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	files, err := sources.Collect(paths, cfg.Analysis.Extensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no sources found in %s", strings.Join(paths, ", "))
	}

	units, err := newAnalyzer(cfg, logger).AnalyzeFiles(ctx, files)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		// per-unit failures are already diagnostics; only unread files matter here
		logger.Debug("Some units failed", slog.String("error", err.Error()))
	}

	var diags []diagnostic.Diagnostic
	for i, u := range units {
		if u == nil {
			diags = append(diags, diagnostic.Diagnostic{
				File:     files[i],
				Severity: diagnostic.SeverityError,
				Code:     diagnostic.CodeParse,
				Message:  "file could not be read",
			})
			continue
		}
		diags = append(diags, u.Diagnostics.All()...)
	}
	diagnostic.Sort(diags)

	switch cfg.Output.Format {
	case config.FormatJSON:
		encoded, err := diagnostic.FormatJSON(diags)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, encoded)
	default:
		if len(diags) > 0 {
			fmt.Fprintln(out, diagnostic.FormatText(diags, cfg.UseColor()))
		}
	}

	for _, d := range diags {
		if d.Severity == diagnostic.SeverityError {
			return errCheckFailed
		}
	}
	return nil
}
