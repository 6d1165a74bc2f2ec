// Package result reads the tab-separated edge list foldseek easy-search
// writes. The file carries no header; columns are assigned by position and
// the schema variant is inferred from the column count, matching how the
// downstream embedding step consumes the table.
package result

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/structbio/foldmap/internal/tabular"
)

// Variant identifies which output schema produced a table.
type Variant string

const (
	VariantExtended Variant = "extended" // ends with the alntmscore column
	VariantReduced  Variant = "reduced"  // ends with the bit score
)

const (
	reducedColumns  = 7
	extendedColumns = 8
)

// Row is one (query, neighbor) pair.
type Row struct {
	Query   string
	Target  string
	AlnLen  int
	QCov    float64
	TCov    float64
	EValue  float64
	Bits    float64
	TMScore float64 // only meaningful when the table is extended

	// line is the row exactly as read, so rewriting a table never
	// reformats the numeric columns of rows it keeps.
	line string
}

// Table is an ordered result set as read from disk.
type Table struct {
	Variant Variant
	Rows    []Row
}

// Load reads a result table, gzip-transparently. Blank lines are skipped;
// a stray header row (non-numeric alnlen column) is tolerated and dropped,
// since some upstream tools prepend one before handing the table back.
func Load(path string) (*Table, error) {
	r, err := tabular.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open result table: %w", err)
	}
	defer r.Close()

	t := &Table{}
	sc := tabular.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		row, err := parseRow(fields)
		if err != nil {
			if len(t.Rows) == 0 && lineNo == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		variant := variantFor(len(fields))
		if t.Variant == "" {
			t.Variant = variant
		} else if t.Variant != variant {
			return nil, fmt.Errorf("%s:%d: mixed column counts in one table", path, lineNo)
		}
		row.line = line
		t.Rows = append(t.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return t, nil
}

func variantFor(columns int) Variant {
	if columns >= extendedColumns {
		return VariantExtended
	}
	return VariantReduced
}

func parseRow(fields []string) (Row, error) {
	if len(fields) < reducedColumns {
		return Row{}, fmt.Errorf("want at least %d columns, got %d", reducedColumns, len(fields))
	}
	var (
		row Row
		err error
	)
	row.Query = fields[0]
	row.Target = fields[1]
	if row.AlnLen, err = strconv.Atoi(fields[2]); err != nil {
		return Row{}, fmt.Errorf("bad alignment length %q", fields[2])
	}
	if row.QCov, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return Row{}, fmt.Errorf("bad query coverage %q", fields[3])
	}
	if row.TCov, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return Row{}, fmt.Errorf("bad target coverage %q", fields[4])
	}
	if row.EValue, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return Row{}, fmt.Errorf("bad e-value %q", fields[5])
	}
	if row.Bits, err = strconv.ParseFloat(fields[6], 64); err != nil {
		return Row{}, fmt.Errorf("bad bit score %q", fields[6])
	}
	if len(fields) >= extendedColumns {
		if row.TMScore, err = strconv.ParseFloat(fields[7], 64); err != nil {
			return Row{}, fmt.Errorf("bad TM-score %q", fields[7])
		}
	}
	return row, nil
}

// QueryCounts returns the number of rows per distinct query identifier.
func (t *Table) QueryCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range t.Rows {
		counts[r.Query]++
	}
	return counts
}

// MaxPerQuery returns the largest per-query row count, 0 for an empty table.
func (t *Table) MaxPerQuery() int {
	max := 0
	for _, n := range t.QueryCounts() {
		if n > max {
			max = n
		}
	}
	return max
}

// TopK returns a copy of the table with at most k rows per distinct query,
// keeping the first k in table order; the engine emits neighbors best
// first, so this is the cap the downstream consumer expects.
func (t *Table) TopK(k int) *Table {
	counts := make(map[string]int)
	out := &Table{Variant: t.Variant}
	for _, r := range t.Rows {
		if counts[r.Query] >= k {
			continue
		}
		counts[r.Query]++
		out.Rows = append(out.Rows, r)
	}
	return out
}

// WriteTSV re-emits the table in the engine's native headerless format.
// Rows that came from disk are written back byte-identical.
func (t *Table) WriteTSV(w io.Writer) error {
	for _, r := range t.Rows {
		if _, err := io.WriteString(w, r.line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
