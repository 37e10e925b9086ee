// Package output renders result sets for the CLI. It is extendable and
// for now provides three formats: table, CSV and JSON.
package output

import (
	"fmt"
	"strings"

	"umbra/internal/exec"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// Formatter renders one result set to text.
type Formatter interface {
	FormatResult(*exec.ResultSet) (string, error)
}

// NewFormatter creates a Formatter by name; empty defaults to table.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatTable:
		return tableFormatter{}, nil
	case FormatCSV:
		return csvFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'table', 'csv', or 'json'", name)
	}
}

// cells decodes a result set into header + string rows, shared by the
// text formats.
func cells(rs *exec.ResultSet) ([]string, [][]string, error) {
	header := rs.ColumnNames()
	if rs.Count != nil {
		return header, [][]string{{fmt.Sprintf("%d", *rs.Count)}}, nil
	}
	values, err := rs.AllValues()
	if err != nil {
		return nil, nil, err
	}
	rows := make([][]string, 0, len(values))
	for _, row := range values {
		cols := make([]string, len(row))
		for i, v := range row {
			cols[i] = v.String()
		}
		rows = append(rows, cols)
	}
	return header, rows, nil
}
