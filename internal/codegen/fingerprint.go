package codegen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"umbra/internal/catalog"
	"umbra/internal/sql"
)

// KernelKind selects the shape of a kernel's result buffer.
type KernelKind int

const (
	// KindStar copies whole records into the result buffer.
	KindStar KernelKind = iota
	// KindProjection copies a subset of columns.
	KindProjection
	// KindCount writes a single int.
	KindCount
)

// Plan is a fully resolved kernel request: what to scan, what to keep,
// and what to emit. Build it once per statement with PlanSelect and
// pass it to KernelSource and the executor.
type Plan struct {
	Schema      *catalog.Schema
	Kind        KernelKind
	Result      *catalog.Schema // projection/result schema; nil for count
	Projection  []int           // schema indices, ascending; nil unless KindProjection
	Predicate   sql.Expr
	Fingerprint string
}

// SymbolName returns the exported kernel entry point for this plan.
func (p *Plan) SymbolName() string {
	return "umbra_k_" + p.Fingerprint
}

// PlanSelect resolves a validated SELECT into a kernel plan. The
// projection keeps source column order regardless of the select list
// order, matching the projection struct the kernel writes.
func PlanSelect(stmt *sql.SelectStmt, schema *catalog.Schema) *Plan {
	plan := &Plan{Schema: schema, Predicate: stmt.Where}
	switch {
	case stmt.Count:
		plan.Kind = KindCount
	case stmt.Star:
		plan.Kind = KindStar
		plan.Result = schema
	default:
		plan.Kind = KindProjection
		picked := make(map[int]bool)
		for _, name := range stmt.Columns {
			picked[schema.FindColumn(name)] = true
		}
		result := &catalog.Schema{Table: schema.Table}
		for i, c := range schema.Columns {
			if picked[i] {
				plan.Projection = append(plan.Projection, i)
				result.Columns = append(result.Columns, c)
			}
		}
		plan.Result = result
	}
	plan.Fingerprint = fingerprint(plan)
	return plan
}

// fingerprint hashes everything that shapes kernel behavior: table,
// schema hash, canonical predicate, canonical projection, and kind.
// Statements with equal canonical ASTs fingerprint identically.
func fingerprint(p *Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%08x|", p.Schema.Table, p.Schema.Hash())
	if p.Predicate != nil {
		b.WriteString(sql.ExprString(p.Predicate))
	}
	b.WriteByte('|')
	for i, idx := range p.Projection {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strings.ToLower(p.Schema.Columns[idx].Name))
	}
	fmt.Fprintf(&b, "|%d", p.Kind)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}
