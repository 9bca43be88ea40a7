package transform

// Enrich injects the two metadata columns: DATA_DATE becomes the first column
// (all existing columns shift right) and SOURCE is appended as the last. Every
// row receives the identical constant asOf and source values. Downstream
// consumers rely on DATA_DATE being first, so the ordering here is part of the
// contract, not a presentation choice.
func Enrich(header []string, rows [][]string, asOf, source string) ([]string, [][]string) {
	outHeader := make([]string, 0, len(header)+2)
	outHeader = append(outHeader, DataDateColumn)
	outHeader = append(outHeader, header...)
	outHeader = append(outHeader, SourceColumn)

	outRows := make([][]string, len(rows))
	for i, row := range rows {
		out := make([]string, 0, len(row)+2)
		out = append(out, asOf)
		out = append(out, row...)
		out = append(out, source)
		outRows[i] = out
	}
	return outHeader, outRows
}
