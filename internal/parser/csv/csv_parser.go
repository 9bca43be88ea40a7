// Package csv reads the external fund CSV exports: a header row followed by
// data rows, UTF-8 by default with an optional declared source charset.
// Inputs are modest (one fund snapshot per file), so rows are materialized
// rather than streamed.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// Encoding optionally names an IANA charset for the source bytes
	// (e.g. "windows-1252"). Empty or "utf-8" means no decoding.
	Encoding string
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse consumes the whole input and returns the header row plus all data
// rows. The header has any UTF-8 BOM stripped from its first cell. A
// malformed record anywhere in the file is returned as an error; per-file
// recovery is the caller's concern.
func (p *Parser) Parse(r io.Reader) ([]string, [][]string, error) {
	cr, err := p.reader(r)
	if err != nil {
		return nil, nil, err
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv: empty input, no header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("csv: read header: %w", err)
	}
	header = StripHeaderBOM(p.clean(append([]string(nil), header...)))

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv: read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, p.clean(append([]string(nil), rec...)))
	}
	return header, rows, nil
}

// ReadHeader reads and returns only the header row. The load phase uses this
// to check an already-transformed file against the established table schema
// without materializing its rows.
func (p *Parser) ReadHeader(r io.Reader) ([]string, error) {
	cr, err := p.reader(r)
	if err != nil {
		return nil, err
	}
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input, no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	return StripHeaderBOM(p.clean(append([]string(nil), header...))), nil
}

func (p *Parser) reader(r io.Reader) (*csv.Reader, error) {
	if name := strings.TrimSpace(p.opt.Encoding); name != "" && !strings.EqualFold(name, "utf-8") {
		enc, err := ianaindex.IANA.Encoding(name)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("csv: unknown encoding %q", name)
		}
		r = transform.NewReader(r, enc.NewDecoder())
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.ReuseRecord = true
	return cr, nil
}

func (p *Parser) clean(rec []string) []string {
	if !p.opt.TrimSpace {
		return rec
	}
	for i, v := range rec {
		rec[i] = strings.TrimSpace(v)
	}
	return rec
}
