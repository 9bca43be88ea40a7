// Package transform rewrites a parsed CSV file into its normalized, enriched
// form: canonical column names, consolidated instrument identifiers, and the
// injected DATA_DATE / SOURCE metadata columns. All transforms here are pure
// slice-in/slice-out functions; input slices are never mutated in place.
package transform

import "fundetl/internal/naming"

// Injected metadata columns and the consolidated identifier column.
const (
	DataDateColumn = "DATA_DATE"
	SourceColumn   = "SOURCE"
	InstIDColumn   = "INST_ID"
)

// instAliases are the semantically equivalent instrument-identifier columns
// that consolidate into InstIDColumn. Keyed by canonical (normalized) name.
var instAliases = map[string]struct{}{
	"SEDOL": {},
	"ISIN":  {},
}

// NormalizeHeader converts every column name to its canonical form:
// snake_case, upper-cased. Already-normalized headers pass through unchanged.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		out[i] = canonical(col)
	}
	return out
}

func canonical(col string) string {
	s := naming.SnakeCase(col)
	b := []byte(s)
	for i := range b {
		if b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

// ConsolidateIdentifiers renames instrument-identifier alias columns (SEDOL,
// ISIN) to the shared InstIDColumn. Column names are expected in canonical
// form (NormalizeHeader).
//
// Collision policy when a schema carries more than one alias column: the
// schema keeps a single InstIDColumn at the position of the first alias
// occurrence, and each row's value is taken from the last alias occurrence
// (last-write-wins by column position). The remaining alias columns are
// dropped from the schema and from every row; their values are lost, which is
// the documented cost of collapsing onto one identifier column.
func ConsolidateIdentifiers(header []string, rows [][]string) ([]string, [][]string) {
	var aliasAt []int
	for i, col := range header {
		if _, ok := instAliases[col]; ok {
			aliasAt = append(aliasAt, i)
		}
	}
	if len(aliasAt) == 0 {
		return header, rows
	}

	first, last := aliasAt[0], aliasAt[len(aliasAt)-1]
	drop := make(map[int]struct{}, len(aliasAt)-1)
	for _, i := range aliasAt[1:] {
		drop[i] = struct{}{}
	}

	outHeader := make([]string, 0, len(header)-len(drop))
	for i, col := range header {
		if _, gone := drop[i]; gone {
			continue
		}
		if i == first {
			col = InstIDColumn
		}
		outHeader = append(outHeader, col)
	}

	outRows := make([][]string, len(rows))
	for r, row := range rows {
		out := make([]string, 0, len(outHeader))
		for i, v := range row {
			if _, gone := drop[i]; gone {
				continue
			}
			if i == first && last < len(row) {
				v = row[last]
			}
			out = append(out, v)
		}
		outRows[r] = out
	}
	return outHeader, outRows
}
