// Package taxonomy expands the UniProt "Taxonomic lineage" string into
// typed columns. A lineage is a comma-separated list of "Name (rank)"
// items; each rank becomes a column, with a numeric suffix when the same
// rank occurs more than once (clade1, clade2, ...).
package taxonomy

import (
	"fmt"
	"regexp"
	"strings"
)

// Taxon is one lineage element.
type Taxon struct {
	Name string
	Rank string
}

var (
	rankedPattern = regexp.MustCompile(`^(.*)\s+\(([^)]+)\)$`)
	nonWord       = regexp.MustCompile(`[^\w]+`)
	underscores   = regexp.MustCompile(`_+`)
)

// SanitizeRank normalizes a rank label into a column-name-safe token.
func SanitizeRank(rank string) string {
	r := strings.ToLower(strings.TrimSpace(rank))
	r = nonWord.ReplaceAllString(r, "_")
	r = underscores.ReplaceAllString(r, "_")
	r = strings.Trim(r, "_")
	if r == "" {
		return "unknown"
	}
	return r
}

// ParseLineage splits a lineage string into taxa. Elements without a
// parenthesized rank get the rank "unknown".
func ParseLineage(lineage string) []Taxon {
	if strings.TrimSpace(lineage) == "" {
		return nil
	}
	var taxa []Taxon
	for _, part := range strings.Split(lineage, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m := rankedPattern.FindStringSubmatch(part); m != nil {
			taxa = append(taxa, Taxon{
				Name: strings.TrimSpace(m[1]),
				Rank: SanitizeRank(m[2]),
			})
		} else {
			taxa = append(taxa, Taxon{Name: part, Rank: "unknown"})
		}
	}
	return taxa
}

// columnsFor assigns a column name to each taxon, in lineage order. Ranks
// that occur once keep their bare name; repeated ranks are numbered in
// order of appearance.
func columnsFor(taxa []Taxon) []string {
	counts := make(map[string]int)
	for _, tx := range taxa {
		counts[tx.Rank]++
	}
	seen := make(map[string]int)
	cols := make([]string, len(taxa))
	for i, tx := range taxa {
		seen[tx.Rank]++
		if counts[tx.Rank] > 1 {
			cols[i] = fmt.Sprintf("%s%d", tx.Rank, seen[tx.Rank])
		} else {
			cols[i] = tx.Rank
		}
	}
	return cols
}

// ExpandLineage maps column names to taxon names for one lineage.
func ExpandLineage(lineage string) map[string]string {
	taxa := ParseLineage(lineage)
	cols := columnsFor(taxa)
	out := make(map[string]string, len(taxa))
	for i, tx := range taxa {
		out[cols[i]] = tx.Name
	}
	return out
}

// Expansion is the result of expanding a whole column of lineages: the
// union of generated columns in first-appearance order, plus one
// column→name map per input row.
type Expansion struct {
	Columns []string
	Rows    []map[string]string
}

// ExpandAll expands every lineage and collects the combined column set.
func ExpandAll(lineages []string) *Expansion {
	e := &Expansion{}
	known := make(map[string]struct{})
	for _, l := range lineages {
		taxa := ParseLineage(l)
		cols := columnsFor(taxa)
		row := make(map[string]string, len(taxa))
		for i, tx := range taxa {
			row[cols[i]] = tx.Name
			if _, ok := known[cols[i]]; !ok {
				known[cols[i]] = struct{}{}
				e.Columns = append(e.Columns, cols[i])
			}
		}
		e.Rows = append(e.Rows, row)
	}
	return e
}
