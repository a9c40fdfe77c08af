package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jadescript/jadescript-go/analyzer"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the context chain of each declaration",
	Long: `Analyze a file and print, for every top-level declaration, the
context stack it was analyzed in together with its association views.

Examples:
  jadescriptc dump market.jade
  jadescriptc dump --decl Seller market.jade`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		unit, err := newAnalyzer(cfg, logger).AnalyzeFile(args[0])
		if unit == nil {
			return err
		}
		decl, _ := cmd.Flags().GetString("decl")
		return writeDump(cmd.OutOrStdout(), unit, decl)
	},
}

func init() {
	dumpCmd.Flags().String("decl", "", "Only dump the named declaration")
	rootCmd.AddCommand(dumpCmd)
}

func writeDump(w io.Writer, unit *analyzer.Unit, only string) error {
	if only != "" {
		d, ok := unit.Declaration(only)
		if !ok {
			return fmt.Errorf("no declaration named %q in %s", only, unit.File)
		}
		return writeDeclaration(w, unit, d)
	}
	for _, d := range unit.Declarations {
		if err := writeDeclaration(w, unit, d); err != nil {
			return err
		}
	}
	return nil
}

func writeDeclaration(w io.Writer, unit *analyzer.Unit, d analyzer.DeclarationInfo) error {
	if _, err := fmt.Fprintf(w, "# %s %s\n", d.Keyword, d.Name); err != nil {
		return err
	}
	if d.Err != nil {
		if _, err := fmt.Fprintf(w, "# aborted: %v\n", d.Err); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, unit.Dump(d))
	return err
}
