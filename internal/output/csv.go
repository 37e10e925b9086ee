package output

import (
	"encoding/csv"
	"fmt"
	"strings"

	"umbra/internal/exec"
)

type csvFormatter struct{}

// FormatResult renders the header row followed by one CSV record per
// result row.
func (csvFormatter) FormatResult(rs *exec.ResultSet) (string, error) {
	if rs == nil {
		return "", nil
	}
	if rs.Schema == nil && rs.Count == nil {
		return fmt.Sprintf("rows_affected,%d\n", rs.RowsAffected), nil
	}
	header, rows, err := cells(rs)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
