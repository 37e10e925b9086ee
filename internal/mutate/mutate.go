// Package mutate implements INSERT, UPDATE and DELETE. Reads go
// through a synthetic SELECT * kernel so predicates take exactly one
// path through the engine; writes rewrite the affected page images,
// recompile them, and bump the table metadata.
package mutate

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"umbra/internal/catalog"
	"umbra/internal/exec"
	"umbra/internal/page"
	"umbra/internal/sql"
	"umbra/internal/umbraerr"
)

// Engine is the mutation engine for one database directory.
type Engine struct {
	Store *page.Store
	Exec  *exec.Executor
	Dirs  catalog.Dirs
}

// Insert validates and applies one INSERT: a fresh uuid is synthesized
// (any user-supplied uuid is overwritten), defaults fill omitted
// columns, and the record lands on the last page with spare capacity.
func (m *Engine) Insert(stmt *sql.InsertStmt, schema *catalog.Schema, meta *catalog.TableMetadata) (*exec.ResultSet, error) {
	resolved, err := sql.ValidateInsert(stmt, schema)
	if err != nil {
		return nil, err
	}

	row := make([]catalog.Value, len(schema.Columns))
	for i, col := range schema.Columns {
		switch {
		case i == 0:
			row[i] = catalog.StringValue(catalog.TypeVarchar, uuid.NewString())
		case resolved[i] != nil:
			v, err := sql.Eval(resolved[i], schema, nil)
			if err != nil {
				return nil, err
			}
			row[i], err = sql.Coerce(v, col)
			if err != nil {
				return nil, err
			}
		default:
			row[i], err = sql.EvalDefault(col, schema)
			if err != nil {
				return nil, err
			}
		}
	}

	pageID, records, err := m.pageForInsert(schema, meta)
	if err != nil {
		return nil, err
	}
	records = append(records, row)
	if err := m.Store.Regenerate(schema, pageID, records); err != nil {
		return nil, err
	}

	if pageID >= int(meta.PageCount) {
		meta.PageCount = int32(pageID) + 1
	}
	meta.RecordCount++
	meta.Touch()
	if err := catalog.SaveMetadata(*meta, m.Dirs); err != nil {
		return nil, &umbraerr.Partial{RowsAffected: 1, Cause: err}
	}
	log.Debug("inserted record", "table", schema.Table, "page", pageID, "uuid", row[0].Str)
	return &exec.ResultSet{RowsAffected: 1}, nil
}

// pageForInsert resolves the target page and its current in-memory
// image: the last page while it has room, else a fresh page id.
func (m *Engine) pageForInsert(schema *catalog.Schema, meta *catalog.TableMetadata) (int, [][]catalog.Value, error) {
	if meta.PageCount == 0 {
		return 0, nil, nil
	}
	last := int(meta.PageCount) - 1
	records, err := m.Store.ReadAll(schema, last)
	if err != nil {
		return 0, nil, err
	}
	pageID := page.FindBestPageForInsert(*meta, len(records), 1)
	if pageID != last {
		return pageID, nil, nil
	}
	return last, records, nil
}

// Update validates and applies one UPDATE. Matching rows come from a
// selector kernel equivalent to SELECT * FROM t WHERE <pred>; the SET
// assignments are applied to in-memory copies of the affected pages.
func (m *Engine) Update(stmt *sql.UpdateStmt, schema *catalog.Schema, meta *catalog.TableMetadata) (*exec.ResultSet, error) {
	if err := sql.ValidateUpdate(stmt, schema); err != nil {
		return nil, err
	}
	matched, err := m.matchingUUIDs(stmt.Where, schema, meta)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return &exec.ResultSet{}, nil
	}

	var affected int64
	for pageID := 0; pageID < int(meta.PageCount); pageID++ {
		records, err := m.Store.ReadAll(schema, pageID)
		if err != nil {
			return nil, m.partial(affected, err)
		}
		changed := false
		for i, row := range records {
			if !matched[row[0].Str] {
				continue
			}
			updated, err := applyAssignments(stmt.Assignments, schema, row)
			if err != nil {
				return nil, m.partial(affected, err)
			}
			records[i] = updated
			changed = true
			affected++
		}
		if changed {
			if err := m.Store.Regenerate(schema, pageID, records); err != nil {
				return nil, m.partial(affected, err)
			}
		}
	}

	meta.Touch()
	if err := catalog.SaveMetadata(*meta, m.Dirs); err != nil {
		return nil, m.partial(affected, err)
	}
	return &exec.ResultSet{RowsAffected: affected}, nil
}

// Delete validates and applies one DELETE by filtering matched records
// out of each affected page.
func (m *Engine) Delete(stmt *sql.DeleteStmt, schema *catalog.Schema, meta *catalog.TableMetadata) (*exec.ResultSet, error) {
	if err := sql.ValidateDelete(stmt, schema); err != nil {
		return nil, err
	}
	matched, err := m.matchingUUIDs(stmt.Where, schema, meta)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return &exec.ResultSet{}, nil
	}

	var affected int64
	for pageID := 0; pageID < int(meta.PageCount); pageID++ {
		records, err := m.Store.ReadAll(schema, pageID)
		if err != nil {
			return nil, m.partial(affected, err)
		}
		kept := records[:0]
		removed := 0
		for _, row := range records {
			if matched[row[0].Str] {
				removed++
				continue
			}
			kept = append(kept, row)
		}
		if removed == 0 {
			continue
		}
		if err := m.Store.Regenerate(schema, pageID, kept); err != nil {
			return nil, m.partial(affected, err)
		}
		affected += int64(removed)
	}

	meta.RecordCount -= affected
	meta.Touch()
	if err := catalog.SaveMetadata(*meta, m.Dirs); err != nil {
		return nil, m.partial(affected, err)
	}
	return &exec.ResultSet{RowsAffected: affected}, nil
}

// matchingUUIDs runs the synthetic selector and returns the uuid set of
// matching records. A nil predicate matches everything.
func (m *Engine) matchingUUIDs(where sql.Expr, schema *catalog.Schema, meta *catalog.TableMetadata) (map[string]bool, error) {
	selector := &sql.SelectStmt{Table: schema.Table, Star: true, Where: where, Limit: -1}
	if err := sql.ValidateSelect(selector, schema); err != nil {
		return nil, err
	}

	// The selector must see every matching record; size the buffer to
	// the whole table rather than the query default.
	ex := *m.Exec
	if n := int(meta.RecordCount) + 1; n > ex.MaxResults {
		ex.MaxResults = n
	}
	rs, err := ex.Select(selector, schema, *meta)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(rs.Rows))
	for i := range rs.Rows {
		row, err := rs.RowValues(i)
		if err != nil {
			return nil, err
		}
		out[row[0].Str] = true
	}
	return out, nil
}

func applyAssignments(assignments []sql.Assignment, schema *catalog.Schema, row []catalog.Value) ([]catalog.Value, error) {
	updated := make([]catalog.Value, len(row))
	copy(updated, row)
	for _, a := range assignments {
		idx := schema.FindColumn(a.Column)
		v, err := sql.Eval(a.Value, schema, row)
		if err != nil {
			return nil, err
		}
		updated[idx], err = sql.Coerce(v, schema.Columns[idx])
		if err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (m *Engine) partial(affected int64, err error) error {
	if affected == 0 {
		return err
	}
	return &umbraerr.Partial{RowsAffected: affected, Cause: err}
}
