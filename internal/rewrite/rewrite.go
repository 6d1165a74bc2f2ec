// Package rewrite strips AlphaFold-style decoration from accession
// identifiers so result tables join cleanly against UniProt metadata.
// A model file named AF-P12345-F1-model_v4.pdb shows up in search output
// as "AF-P12345-F1-model_v4" (or with the file extension still attached);
// downstream steps want the bare accession "P12345".
package rewrite

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/structbio/foldmap/internal/tabular"
)

var (
	extPattern    = regexp.MustCompile(`(?i)\.(pdb|cif|mmcif|ent)(\.gz)?$`)
	afFullPattern = regexp.MustCompile(`^AF-([A-Z0-9]+)-F\d+(-model_v\d+)?$`)
	afTailPattern = regexp.MustCompile(`-F\d+(-model_v\d+)?$`)
)

// Accession rewrites one identifier. Structure-file extensions are dropped
// first, then the AF- prefix and fragment/model suffix. Identifiers that
// carry no AlphaFold decoration pass through unchanged.
func Accession(id string) string {
	id = extPattern.ReplaceAllString(id, "")
	if m := afFullPattern.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	// Tolerate partial decoration: suffix without prefix or vice versa.
	id = afTailPattern.ReplaceAllString(id, "")
	id = strings.TrimPrefix(id, "AF-")
	return id
}

// Options controls TSV rewriting.
type Options struct {
	// Columns are the 0-based column indices to rewrite.
	Columns []int
	// Header passes the first row through unchanged.
	Header bool
}

// TSV rewrites the selected columns of every row from r into w, preserving
// tab separation and row order. Columns beyond a row's width are ignored,
// since trailing optional columns vary between schema variants.
func TSV(r io.Reader, w io.Writer, opts Options) error {
	cols := opts.Columns
	if len(cols) == 0 {
		cols = []int{0, 1}
	}

	sc := tabular.NewScanner(r)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first && opts.Header {
			first = false
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return err
			}
			continue
		}
		first = false
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for _, c := range cols {
			if c >= 0 && c < len(fields) {
				fields[c] = Accession(fields[c])
			}
		}
		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("cannot read input: %w", err)
	}
	return nil
}
