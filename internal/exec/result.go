// Package exec runs SELECT plans: it obtains the kernel, sweeps the
// table's pages through it, and collects the result buffer.
package exec

import (
	"time"

	"umbra/internal/catalog"
)

// ResultSet is what a statement hands back to the caller. Rows are
// dense slices into one contiguous output buffer, in scan order
// (ascending page id, then position) unless ORDER BY reordered them.
type ResultSet struct {
	Schema       *catalog.Schema // result schema; nil for mutations
	RowSize      int
	Rows         [][]byte
	Count        *int64 // set for COUNT(*) instead of Rows
	RowsAffected int64
	Warnings     []string
	Elapsed      time.Duration
}

// RowValues decodes row i against the result schema.
func (r *ResultSet) RowValues(i int) ([]catalog.Value, error) {
	return catalog.DecodeRecord(r.Schema, r.Rows[i])
}

// AllValues decodes every row.
func (r *ResultSet) AllValues() ([][]catalog.Value, error) {
	out := make([][]catalog.Value, len(r.Rows))
	for i := range r.Rows {
		row, err := r.RowValues(i)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// ColumnNames lists the result column headers. COUNT(*) results have
// the single synthetic column.
func (r *ResultSet) ColumnNames() []string {
	if r.Count != nil {
		return []string{"COUNT(*)"}
	}
	if r.Schema == nil {
		return nil
	}
	return r.Schema.ColumnNames()
}
