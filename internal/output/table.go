package output

import (
	"fmt"
	"strings"

	"umbra/internal/exec"
)

type tableFormatter struct{}

// FormatResult renders an aligned ASCII table, or a row-count summary
// for mutations.
func (tableFormatter) FormatResult(rs *exec.ResultSet) (string, error) {
	if rs == nil {
		return "", nil
	}
	if rs.Schema == nil && rs.Count == nil {
		return fmt.Sprintf("%d row(s) affected\n", rs.RowsAffected), nil
	}

	header, rows, err := cells(rs)
	if err != nil {
		return "", err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cols []string) {
		for i, cell := range cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}
		b.WriteByte('\n')
	}
	writeRow(header)
	for i, w := range widths {
		if i > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteByte('\n')
	for _, row := range rows {
		writeRow(row)
	}
	fmt.Fprintf(&b, "(%d rows)\n", len(rows))
	return b.String(), nil
}
