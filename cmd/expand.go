package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/structbio/foldmap/internal/tabular"
	"github.com/structbio/foldmap/internal/taxonomy"
)

var (
	flagExpandCol string
	flagExpandOut string
)

var expandCmd = &cobra.Command{
	Use:   "expand <tsv>",
	Short: "Expand a taxonomic-lineage column into typed columns",
	Long: `Expand the "Taxonomic lineage" column of a metadata TSV into one
column per rank (superkingdom, phylum, clade1, clade2, ...), appended after
the original columns. The input must carry a header row; gzip input is read
transparently. Output lands next to the input as <name>_extended.tsv unless
--out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().StringVar(&flagExpandCol, "lineage-col", "Taxonomic lineage", "Header name of the lineage column")
	expandCmd.Flags().StringVar(&flagExpandOut, "out", "", "Output path (default: <input>_extended.tsv)")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(_ *cobra.Command, args []string) error {
	inPath := args[0]
	header, rows, err := readTSVWithHeader(inPath)
	if err != nil {
		return err
	}

	colIdx := -1
	for i, h := range header {
		if h == flagExpandCol {
			colIdx = i
			break
		}
	}
	if colIdx < 0 {
		return fmt.Errorf("column %q not found in %s. Available columns: %s",
			flagExpandCol, inPath, strings.Join(header, ", "))
	}

	lineages := make([]string, len(rows))
	for i, row := range rows {
		if colIdx < len(row) {
			lineages[i] = row[colIdx]
		}
	}
	exp := taxonomy.ExpandAll(lineages)

	outPath := flagExpandOut
	if outPath == "" {
		outPath = expandOutputPath(inPath)
	}
	if err := writeExpanded(outPath, header, rows, exp); err != nil {
		return err
	}
	printOK("", npr.Sprintf("%d rows, %d lineage columns added: %s", len(rows), len(exp.Columns), outPath))
	return nil
}

func readTSVWithHeader(path string) (header []string, rows [][]string, err error) {
	r, err := tabular.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer r.Close()

	sc := tabular.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if header == nil {
			header = fields
			continue
		}
		rows = append(rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if header == nil {
		return nil, nil, fmt.Errorf("%s is empty, a header row is required", path)
	}
	return header, rows, nil
}

func writeExpanded(path string, header []string, rows [][]string, exp *taxonomy.Expansion) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	out := append(append([]string{}, header...), exp.Columns...)
	if _, err := fmt.Fprintln(f, strings.Join(out, "\t")); err != nil {
		return err
	}
	for i, row := range rows {
		cells := make([]string, 0, len(header)+len(exp.Columns))
		// Pad short rows so the expanded columns stay aligned.
		for c := range header {
			if c < len(row) {
				cells = append(cells, row[c])
			} else {
				cells = append(cells, "")
			}
		}
		for _, col := range exp.Columns {
			cells = append(cells, exp.Rows[i][col])
		}
		if _, err := fmt.Fprintln(f, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// expandOutputPath mirrors the input name with an _extended suffix:
// meta.tsv → meta_extended.tsv, meta.tsv.gz → meta_extended.tsv.
func expandOutputPath(in string) string {
	base := strings.TrimSuffix(in, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_extended.tsv"
}
