package exec

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/charmbracelet/log"

	"umbra/internal/catalog"
	"umbra/internal/codegen"
	"umbra/internal/kernels"
	"umbra/internal/page"
	"umbra/internal/sql"
	"umbra/internal/umbraerr"
)

// DefaultMaxResults bounds the output buffer when the config does not.
const DefaultMaxResults = 10000

// Executor runs SELECT statements against one database directory.
type Executor struct {
	Store            *page.Store
	Kernels          *kernels.Cache
	MaxResults       int
	ToleratePageLoss bool
}

// Select validates nothing; the engine validates before calling. It
// synthesizes (or fetches) the kernel, sweeps every page, and returns
// the collected rows.
func (e *Executor) Select(stmt *sql.SelectStmt, schema *catalog.Schema, meta catalog.TableMetadata) (*ResultSet, error) {
	plan := codegen.PlanSelect(stmt, schema)
	kernel, err := e.kernelFor(plan)
	if err != nil {
		return nil, err
	}

	maxResults := e.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	if plan.Kind == codegen.KindCount {
		return e.runCount(plan, kernel, meta)
	}

	rowSize := catalog.RecordSize(plan.Result)
	buf := make([]byte, maxResults*rowSize)
	used := 0
	var warnings []string

	// LIMIT without ORDER BY lets the page loop stop early; with ORDER
	// BY every page must contribute before the sort.
	earlyStop := stmt.Limit >= 0 && len(stmt.OrderBy) == 0

	for pageID := 0; pageID < int(meta.PageCount); pageID++ {
		h, err := e.Store.Load(schema, pageID)
		if err != nil {
			if e.ToleratePageLoss {
				warnings = append(warnings, fmt.Sprintf("page %d skipped: %v", pageID, err))
				log.Warn("skipping unloadable page", "table", schema.Table, "page", pageID, "err", err)
				continue
			}
			return nil, err
		}
		if h.Count() > 0 {
			base := h.Base()
			out := uintptr(unsafe.Pointer(&buf[used*rowSize]))
			n := int(int32(kernel.Library.Call(kernel.Entry, base, uintptr(h.Count()), out, uintptr(maxResults-used))))
			used += n
		}
		h.Close()

		if used >= maxResults {
			if pageID+1 < int(meta.PageCount) {
				return nil, &umbraerr.OutOfSpace{Limit: maxResults}
			}
			break
		}
		if earlyStop && used >= stmt.Limit {
			break
		}
	}

	rows := make([][]byte, used)
	for i := 0; i < used; i++ {
		rows[i] = buf[i*rowSize : (i+1)*rowSize]
	}

	result := &ResultSet{Schema: plan.Result, RowSize: rowSize, Rows: rows, Warnings: warnings}
	if len(stmt.OrderBy) > 0 {
		if err := sortRows(result, stmt.OrderBy); err != nil {
			return nil, err
		}
	}
	if stmt.Limit >= 0 && len(result.Rows) > stmt.Limit {
		result.Rows = result.Rows[:stmt.Limit]
	}
	return result, nil
}

func (e *Executor) runCount(plan *codegen.Plan, kernel *kernels.Kernel, meta catalog.TableMetadata) (*ResultSet, error) {
	var total int64
	var warnings []string
	counter := make([]byte, 4)

	for pageID := 0; pageID < int(meta.PageCount); pageID++ {
		h, err := e.Store.Load(plan.Schema, pageID)
		if err != nil {
			if e.ToleratePageLoss {
				warnings = append(warnings, fmt.Sprintf("page %d skipped: %v", pageID, err))
				continue
			}
			return nil, err
		}
		if h.Count() > 0 {
			out := uintptr(unsafe.Pointer(&counter[0]))
			kernel.Library.Call(kernel.Entry, h.Base(), uintptr(h.Count()), out, 1)
			total += int64(int32(binary.LittleEndian.Uint32(counter)))
		}
		h.Close()
	}
	return &ResultSet{Count: &total, Warnings: warnings}, nil
}

func (e *Executor) kernelFor(plan *codegen.Plan) (*kernels.Kernel, error) {
	source, err := codegen.KernelSource(plan)
	if err != nil {
		return nil, err
	}
	return e.Kernels.GetOrBuild(plan.Fingerprint, plan.SymbolName(), plan.Schema.Table, plan.Schema.Hash(), source)
}
