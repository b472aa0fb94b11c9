package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/ssargent/rsv/pkg/api"
	"github.com/ssargent/rsv/pkg/codec"
)

const (
	formatTable = "table"
	formatJSON  = "json"

	nullCell    = "<null>"
	maxCellSize = 40
)

// rowPrinter writes rows as an aligned table or as JSON lines, one array per
// row with null for null fields.
type rowPrinter struct {
	format string
	out    io.Writer
	tw     *tabwriter.Writer
	enc    *json.Encoder
	rows   int64
}

func newRowPrinter(out io.Writer, format string) (*rowPrinter, error) {
	p := &rowPrinter{format: format, out: out}
	switch format {
	case formatJSON:
		p.enc = json.NewEncoder(out)
	case formatTable, "":
		p.format = formatTable
		p.tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	default:
		return nil, fmt.Errorf("unknown output format %q (want table or json)", format)
	}
	return p, nil
}

// Print writes one row, labelled with its position in the source.
func (p *rowPrinter) Print(row int64, fields []codec.Field) error {
	p.rows++
	if p.enc != nil {
		return p.enc.Encode(api.NewRow(fields))
	}

	if p.rows == 1 {
		fmt.Fprintln(p.tw, "ROW\tFIELDS")
	}
	cells := make([]string, len(fields))
	for i, f := range fields {
		cells[i] = formatCell(f)
	}
	_, err := fmt.Fprintf(p.tw, "%d\t%s\n", row, strings.Join(cells, "\t"))
	return err
}

// Close flushes the table.
func (p *rowPrinter) Close() error {
	if p.tw == nil {
		return nil
	}
	if p.rows == 0 {
		fmt.Fprintln(p.tw, "No rows found")
	}
	return p.tw.Flush()
}

// formatCell renders a field for the table view
func formatCell(f codec.Field) string {
	if f.IsNull() {
		return nullCell
	}
	s := f.String()
	if s == "" {
		return `""`
	}
	if len(s) > maxCellSize {
		s = s[:maxCellSize-3] + "..."
	}
	return s
}

// printSummary writes key/value pairs in the same format as the rows
func printSummary(out io.Writer, format string, pairs [][2]any) error {
	if format == formatJSON {
		m := make(map[string]any, len(pairs))
		for _, kv := range pairs {
			m[kv[0].(string)] = kv[1]
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, kv := range pairs {
		fmt.Fprintf(w, "%s:\t%v\n", kv[0], kv[1])
	}
	return w.Flush()
}
