package exec

import (
	"sort"

	"umbra/internal/catalog"
	"umbra/internal/sql"
	"umbra/internal/umbraerr"
)

// sortRows applies ORDER BY keys with a stable sort so ties keep scan
// order. Keys are decoded once per row up front.
func sortRows(r *ResultSet, keys []sql.OrderKey) error {
	idx := make([]int, len(keys))
	for i, k := range keys {
		pos := r.Schema.FindColumn(k.Column)
		if pos < 0 {
			return &umbraerr.ColumnNotFound{Name: k.Column}
		}
		idx[i] = pos
	}

	decoded := make([][]catalog.Value, len(r.Rows))
	for i := range r.Rows {
		row, err := r.RowValues(i)
		if err != nil {
			return err
		}
		decoded[i] = row
	}

	order := make([]int, len(r.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := decoded[order[a]], decoded[order[b]]
		for i, pos := range idx {
			cmp := catalog.Compare(ra[pos], rb[pos])
			if cmp == 0 {
				continue
			}
			if keys[i].Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	sorted := make([][]byte, len(r.Rows))
	for i, j := range order {
		sorted[i] = r.Rows[j]
	}
	r.Rows = sorted
	return nil
}
