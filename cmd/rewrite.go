package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/structbio/foldmap/internal/rewrite"
	"github.com/structbio/foldmap/internal/tabular"
)

var (
	flagRewriteOut    string
	flagRewriteCols   string
	flagRewriteHeader bool
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <tsv>",
	Short: "Strip AlphaFold accession decoration from a tab-separated table",
	Long: `Rewrite identifier columns of a TSV so AlphaFold model names
(AF-P12345-F1-model_v4, with or without a structure-file extension) become
bare UniProt accessions (P12345). Gzip input is read transparently.

By default the first two columns are rewritten: query and target of a
search result table. With --header the first row passes through unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().StringVar(&flagRewriteOut, "out", "", "Output path (default: stdout)")
	rewriteCmd.Flags().StringVar(&flagRewriteCols, "cols", "1,2", "Comma-separated 1-based columns to rewrite")
	rewriteCmd.Flags().BoolVar(&flagRewriteHeader, "header", false, "Treat the first row as a header and pass it through unchanged")
	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(_ *cobra.Command, args []string) error {
	cols, err := parseColumnList(flagRewriteCols)
	if err != nil {
		return err
	}

	in, err := tabular.Open(args[0])
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", args[0], err)
	}
	defer in.Close()

	out := os.Stdout
	if flagRewriteOut != "" {
		f, err := os.Create(flagRewriteOut)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", flagRewriteOut, err)
		}
		defer f.Close()
		out = f
	}

	opts := rewrite.Options{Columns: cols, Header: flagRewriteHeader}
	if err := rewrite.TSV(in, out, opts); err != nil {
		return err
	}
	if flagRewriteOut != "" {
		printOK("", fmt.Sprintf("rewritten table written: %s", flagRewriteOut))
	}
	return nil
}

// parseColumnList turns a 1-based "1,2" flag value into 0-based indices.
func parseColumnList(s string) ([]int, error) {
	var cols []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid column %q in --cols (1-based indices expected)", part)
		}
		cols = append(cols, n-1)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("--cols selects no columns")
	}
	return cols, nil
}
