package taxonomy

import (
	"reflect"
	"testing"
)

func TestSanitizeRank(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"superkingdom", "superkingdom"},
		{" Clade ", "clade"},
		{"no rank", "no_rank"},
		{"sub--phylum!!", "sub_phylum"},
		{"   ", "unknown"},
		{"(((", "unknown"},
	}
	for _, c := range cases {
		if got := SanitizeRank(c.in); got != c.want {
			t.Errorf("SanitizeRank(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseLineage(t *testing.T) {
	got := ParseLineage("Bacteria (superkingdom), Pseudomonadota (phylum), cellular organisms")
	want := []Taxon{
		{Name: "Bacteria", Rank: "superkingdom"},
		{Name: "Pseudomonadota", Rank: "phylum"},
		{Name: "cellular organisms", Rank: "unknown"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseLineage:\n got  %+v\n want %+v", got, want)
	}

	if taxa := ParseLineage("   "); taxa != nil {
		t.Errorf("blank lineage should parse to nil, got %+v", taxa)
	}
}

func TestExpandLineageNumbersRepeatedRanks(t *testing.T) {
	got := ExpandLineage("Eukaryota (superkingdom), Opisthokonta (clade), Metazoa (clade), Chordata (phylum)")
	want := map[string]string{
		"superkingdom": "Eukaryota",
		"clade1":       "Opisthokonta",
		"clade2":       "Metazoa",
		"phylum":       "Chordata",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandLineage:\n got  %v\n want %v", got, want)
	}
}

func TestExpandLineageSingleRankKeepsBareName(t *testing.T) {
	got := ExpandLineage("Homo sapiens (species)")
	if got["species"] != "Homo sapiens" {
		t.Errorf("single-occurrence rank must not be numbered: %v", got)
	}
	if _, ok := got["species1"]; ok {
		t.Errorf("unexpected numbered column: %v", got)
	}
}

func TestExpandAllColumnOrder(t *testing.T) {
	e := ExpandAll([]string{
		"Bacteria (superkingdom), Pseudomonadota (phylum)",
		"Eukaryota (superkingdom), Opisthokonta (clade), Metazoa (clade)",
		"",
	})
	wantCols := []string{"superkingdom", "phylum", "clade1", "clade2"}
	if !reflect.DeepEqual(e.Columns, wantCols) {
		t.Errorf("columns: got %v want %v", e.Columns, wantCols)
	}
	if len(e.Rows) != 3 {
		t.Fatalf("rows: got %d", len(e.Rows))
	}
	if len(e.Rows[2]) != 0 {
		t.Errorf("empty lineage must expand to no columns: %v", e.Rows[2])
	}
	if e.Rows[1]["clade2"] != "Metazoa" {
		t.Errorf("row 1: %v", e.Rows[1])
	}
}
