package pipeline

import "strings"

// Schema is one output-column variant requested from the search engine.
// Variants are tried in order; the first accepted one wins. The extended
// variant carries the TM-score column, which only some foldseek builds
// support; older builds reject the alntmscore output field outright.
type Schema struct {
	Name    string
	Columns []string
}

// FormatOutput renders the schema as the engine's --format-output value.
func (s Schema) FormatOutput() string {
	return strings.Join(s.Columns, ",")
}

// Schemas lists the variants in preference order.
var Schemas = []Schema{
	{
		Name: "extended",
		Columns: []string{
			"query", "target", "alnlen", "qcov", "tcov",
			"evalue", "bits", "alntmscore",
		},
	},
	{
		Name: "reduced",
		Columns: []string{
			"query", "target", "alnlen", "qcov", "tcov",
			"evalue", "bits",
		},
	},
}
