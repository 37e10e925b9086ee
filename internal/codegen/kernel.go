package codegen

import (
	"fmt"
	"strings"

	"umbra/internal/catalog"
	"umbra/internal/sql"
	"umbra/internal/umbraerr"
)

// KernelSource emits the complete C translation unit for a plan: the
// record struct, the projection struct when needed, the exported
// abi_version, and the scan loop. Two plans with the same fingerprint
// produce byte-identical source.
func KernelSource(p *Plan) (string, error) {
	recType := recordTypeName(p.Schema)
	var b strings.Builder

	b.WriteString("#include <stdint.h>\n#include <string.h>\n\n")
	b.WriteString(recordStruct(p.Schema, recType))
	b.WriteByte('\n')

	projType := p.Schema.Table + "_projection"
	if p.Kind == KindProjection {
		b.WriteString(recordStruct(p.Result, projType))
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "const unsigned int abi_version = 0x%08xu;\n\n", p.Schema.Hash())

	fmt.Fprintf(&b, "int %s(const %s *data, int count, void *results, int max_results) {\n", p.SymbolName(), recType)

	pred := "1"
	if p.Predicate != nil {
		lowered, err := lowerExpr(p.Predicate, p.Schema)
		if err != nil {
			return "", err
		}
		pred = lowered
	}

	switch p.Kind {
	case KindCount:
		b.WriteString("    (void)max_results;\n")
		b.WriteString("    int matched = 0;\n")
		b.WriteString("    for (int i = 0; i < count; i++) {\n")
		fmt.Fprintf(&b, "        const %s *rec = &data[i];\n", recType)
		fmt.Fprintf(&b, "        if (!(%s)) continue;\n", pred)
		b.WriteString("        matched++;\n")
		b.WriteString("    }\n")
		b.WriteString("    ((int32_t *)results)[0] = matched;\n")
		b.WriteString("    return 1;\n")

	case KindStar:
		fmt.Fprintf(&b, "    %s *out = (%s *)results;\n", recType, recType)
		b.WriteString("    int matched = 0;\n")
		b.WriteString("    for (int i = 0; i < count; i++) {\n")
		fmt.Fprintf(&b, "        const %s *rec = &data[i];\n", recType)
		fmt.Fprintf(&b, "        if (!(%s)) continue;\n", pred)
		b.WriteString("        if (matched >= max_results) break;\n")
		fmt.Fprintf(&b, "        memcpy(&out[matched], rec, sizeof(%s));\n", recType)
		b.WriteString("        matched++;\n")
		b.WriteString("    }\n")
		b.WriteString("    return matched;\n")

	case KindProjection:
		fmt.Fprintf(&b, "    %s *out = (%s *)results;\n", projType, projType)
		b.WriteString("    int matched = 0;\n")
		b.WriteString("    for (int i = 0; i < count; i++) {\n")
		fmt.Fprintf(&b, "        const %s *rec = &data[i];\n", recType)
		fmt.Fprintf(&b, "        if (!(%s)) continue;\n", pred)
		b.WriteString("        if (matched >= max_results) break;\n")
		for _, idx := range p.Projection {
			c := p.Schema.Columns[idx]
			switch c.Type {
			case catalog.TypeVarchar, catalog.TypeText:
				fmt.Fprintf(&b, "        memcpy(out[matched].%s, rec->%s, sizeof(rec->%s));\n", c.Name, c.Name, c.Name)
			default:
				fmt.Fprintf(&b, "        out[matched].%s = rec->%s;\n", c.Name, c.Name)
			}
		}
		b.WriteString("        matched++;\n")
		b.WriteString("    }\n")
		b.WriteString("    return matched;\n")
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// lowerExpr turns a validated predicate into a C expression over `rec`.
// Column refs become struct reads, string comparisons become strcmp,
// and the boolean connectives short-circuit natively.
func lowerExpr(e sql.Expr, schema *catalog.Schema) (string, error) {
	switch n := e.(type) {
	case *sql.BinaryExpr:
		if n.Op.IsComparison() && isStringOperand(n.Left, schema) {
			return lowerStringCompare(n, schema)
		}
		left, err := lowerExpr(n.Left, schema)
		if err != nil {
			return "", err
		}
		right, err := lowerExpr(n.Right, schema)
		if err != nil {
			return "", err
		}
		op, err := cOperator(n.Op)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), nil

	case *sql.NotExpr:
		inner, err := lowerExpr(n.Operand, schema)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(!%s)", inner), nil

	case *sql.NegExpr:
		inner, err := lowerExpr(n.Operand, schema)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(-%s)", inner), nil

	case *sql.ColumnRef:
		idx := schema.FindColumn(n.Name)
		if idx < 0 {
			return "", &umbraerr.ColumnNotFound{Name: n.Name}
		}
		return "rec->" + schema.Columns[idx].Name, nil

	case *sql.Literal:
		switch n.Kind {
		case sql.LitInt:
			return fmt.Sprintf("%d", n.Int), nil
		case sql.LitFloat:
			return fmt.Sprintf("%g", n.Float), nil
		case sql.LitBool:
			if n.Bool {
				return "1", nil
			}
			return "0", nil
		case sql.LitString:
			return cStringLit(n.Str), nil
		case sql.LitNull:
			return "0", nil
		}
	}
	return "", &umbraerr.Internal{Msg: fmt.Sprintf("cannot lower expression %T", e)}
}

// lowerStringCompare emits strcmp for = and != on string operands.
// Validation guarantees no other operator reaches here.
func lowerStringCompare(n *sql.BinaryExpr, schema *catalog.Schema) (string, error) {
	left, err := lowerExpr(n.Left, schema)
	if err != nil {
		return "", err
	}
	right, err := lowerExpr(n.Right, schema)
	if err != nil {
		return "", err
	}
	// NULL against a string column compares with the empty-string sentinel.
	if lit, ok := n.Right.(*sql.Literal); ok && lit.Kind == sql.LitNull {
		right = `""`
	}
	switch n.Op {
	case sql.OpEq:
		return fmt.Sprintf("(strcmp(%s, %s) == 0)", left, right), nil
	case sql.OpNeq:
		return fmt.Sprintf("(strcmp(%s, %s) != 0)", left, right), nil
	}
	return "", &umbraerr.Internal{Msg: fmt.Sprintf("string comparison with %s survived validation", n.Op)}
}

func isStringOperand(e sql.Expr, schema *catalog.Schema) bool {
	switch n := e.(type) {
	case *sql.Literal:
		return n.Kind == sql.LitString
	case *sql.ColumnRef:
		idx := schema.FindColumn(n.Name)
		if idx < 0 {
			return false
		}
		t := schema.Columns[idx].Type
		return t == catalog.TypeVarchar || t == catalog.TypeText
	}
	return false
}

func cOperator(op sql.BinOp) (string, error) {
	switch op {
	case sql.OpOr:
		return "||", nil
	case sql.OpAnd:
		return "&&", nil
	case sql.OpEq:
		return "==", nil
	case sql.OpNeq:
		return "!=", nil
	case sql.OpLt:
		return "<", nil
	case sql.OpLte:
		return "<=", nil
	case sql.OpGt:
		return ">", nil
	case sql.OpGte:
		return ">=", nil
	case sql.OpAdd:
		return "+", nil
	case sql.OpSub:
		return "-", nil
	case sql.OpMul:
		return "*", nil
	case sql.OpDiv:
		return "/", nil
	}
	return "", &umbraerr.Internal{Msg: "unknown operator"}
}
