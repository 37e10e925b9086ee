package sql

import (
	"fmt"
	"strings"

	"umbra/internal/catalog"
	"umbra/internal/umbraerr"
)

// exprType is the coarse type lattice validation works over.
type exprType int

const (
	typeBool exprType = iota
	typeNumeric
	typeString
	typeNull
)

func columnExprType(t catalog.DataType) exprType {
	switch t {
	case catalog.TypeVarchar, catalog.TypeText:
		return typeString
	case catalog.TypeBool:
		return typeBool
	default:
		return typeNumeric // int, float, date all compare numerically
	}
}

// ValidateSelect resolves every column reference of a SELECT against
// the schema and type-checks the predicate.
func ValidateSelect(stmt *SelectStmt, schema *catalog.Schema) error {
	for _, col := range stmt.Columns {
		if schema.FindColumn(col) < 0 {
			return &umbraerr.ColumnNotFound{Name: col}
		}
	}
	if stmt.Count && len(stmt.OrderBy) > 0 {
		return &umbraerr.SemanticError{Msg: "ORDER BY cannot be combined with COUNT(*)"}
	}
	for _, key := range stmt.OrderBy {
		if schema.FindColumn(key.Column) < 0 {
			return &umbraerr.ColumnNotFound{Name: key.Column}
		}
		if len(stmt.Columns) > 0 && !containsFold(stmt.Columns, key.Column) {
			return &umbraerr.SemanticError{Msg: fmt.Sprintf("ORDER BY column %q must appear in the select list", key.Column)}
		}
	}
	if stmt.Where != nil {
		if err := validatePredicate(stmt.Where, schema); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInsert checks the column list, arity, and assignability of
// every VALUES expression. It returns the resolved per-schema-column
// expression slice: entry i is the expression for schema column i, or
// nil when the column was omitted and must take its default.
func ValidateInsert(stmt *InsertStmt, schema *catalog.Schema) ([]Expr, error) {
	cols := stmt.Columns
	if len(cols) == 0 {
		// Bare VALUES lists cover the user columns; the engine owns uuid.
		if len(stmt.Values) == len(schema.Columns) {
			cols = schema.ColumnNames()
		} else if len(stmt.Values) == len(schema.Columns)-1 {
			cols = schema.ColumnNames()[1:]
		} else {
			return nil, &umbraerr.SemanticError{Msg: fmt.Sprintf("INSERT has %d values for %d columns", len(stmt.Values), len(schema.Columns)-1)}
		}
	}
	if len(cols) != len(stmt.Values) {
		return nil, &umbraerr.SemanticError{Msg: fmt.Sprintf("INSERT names %d columns but provides %d values", len(cols), len(stmt.Values))}
	}

	resolved := make([]Expr, len(schema.Columns))
	seen := make(map[int]bool)
	for i, name := range cols {
		idx := schema.FindColumn(name)
		if idx < 0 {
			return nil, &umbraerr.ColumnNotFound{Name: name}
		}
		if seen[idx] {
			return nil, &umbraerr.SemanticError{Msg: fmt.Sprintf("column %q assigned twice", name)}
		}
		seen[idx] = true
		if err := checkAssignable(stmt.Values[i], schema.Columns[idx], nil); err != nil {
			return nil, err
		}
		resolved[idx] = stmt.Values[i]
	}

	// Omitted columns must have a default, be nullable, or be the
	// engine-populated uuid.
	for i, c := range schema.Columns {
		if resolved[i] != nil || i == 0 {
			continue
		}
		if !c.HasDefault && !c.Nullable {
			return nil, &umbraerr.SemanticError{Msg: fmt.Sprintf("column %q has no default and cannot be null", c.Name)}
		}
	}
	return resolved, nil
}

// ValidateUpdate checks the SET list and predicate.
func ValidateUpdate(stmt *UpdateStmt, schema *catalog.Schema) error {
	for _, a := range stmt.Assignments {
		idx := schema.FindColumn(a.Column)
		if idx < 0 {
			return &umbraerr.ColumnNotFound{Name: a.Column}
		}
		if idx == 0 {
			return &umbraerr.SemanticError{Msg: "uuid is engine-managed and cannot be updated"}
		}
		if err := checkAssignable(a.Value, schema.Columns[idx], schema); err != nil {
			return err
		}
	}
	if stmt.Where != nil {
		return validatePredicate(stmt.Where, schema)
	}
	return nil
}

// ValidateDelete checks the predicate.
func ValidateDelete(stmt *DeleteStmt, schema *catalog.Schema) error {
	if stmt.Where != nil {
		return validatePredicate(stmt.Where, schema)
	}
	return nil
}

// checkAssignable verifies an INSERT/SET expression can produce a value
// of the column's type. INSERT values are literal-only (schema nil);
// UPDATE assignments may reference columns (UPDATE t SET c = c).
func checkAssignable(e Expr, col catalog.Column, schema *catalog.Schema) error {
	t, err := typeOf(e, schema)
	if err != nil {
		return err
	}
	want := columnExprType(col.Type)
	if t == typeNull {
		if !col.Nullable && !col.PrimaryKey {
			// NULL on a non-nullable column is caught here; the sentinel
			// encoding happens later.
			return &umbraerr.SemanticError{Msg: fmt.Sprintf("column %q cannot be null", col.Name)}
		}
		return nil
	}
	if col.Type == catalog.TypeDate && t == typeString {
		// Date literals arrive as strings; parsed at evaluation time.
		return nil
	}
	if t != want {
		return &umbraerr.TypeMismatch{Column: col.Name, Want: string(col.Type), Got: typeName(t)}
	}
	return nil
}

func containsFold(names []string, want string) bool {
	for _, n := range names {
		if strings.EqualFold(n, want) {
			return true
		}
	}
	return false
}

func typeName(t exprType) string {
	switch t {
	case typeBool:
		return "bool"
	case typeNumeric:
		return "numeric"
	case typeString:
		return "string"
	default:
		return "null"
	}
}

// validatePredicate type-checks a WHERE tree: the root must be boolean,
// string columns compare only with = and !=, and operands of a
// comparison must share a type class.
func validatePredicate(e Expr, schema *catalog.Schema) error {
	t, err := typeOf(e, schema)
	if err != nil {
		return err
	}
	if t != typeBool {
		return &umbraerr.SemanticError{Msg: "WHERE clause is not a boolean expression"}
	}
	return nil
}

func typeOf(e Expr, schema *catalog.Schema) (exprType, error) {
	switch n := e.(type) {
	case *Literal:
		switch n.Kind {
		case LitBool:
			return typeBool, nil
		case LitString:
			return typeString, nil
		case LitNull:
			return typeNull, nil
		default:
			return typeNumeric, nil
		}

	case *ColumnRef:
		if schema == nil {
			return 0, &umbraerr.SemanticError{Msg: fmt.Sprintf("column reference %q is not allowed here", n.Name)}
		}
		idx := schema.FindColumn(n.Name)
		if idx < 0 {
			return 0, &umbraerr.ColumnNotFound{Name: n.Name}
		}
		return columnExprType(schema.Columns[idx].Type), nil

	case *NotExpr:
		t, err := typeOf(n.Operand, schema)
		if err != nil {
			return 0, err
		}
		if t != typeBool {
			return 0, &umbraerr.SemanticError{Msg: "NOT applied to a non-boolean expression"}
		}
		return typeBool, nil

	case *NegExpr:
		t, err := typeOf(n.Operand, schema)
		if err != nil {
			return 0, err
		}
		if t != typeNumeric {
			return 0, &umbraerr.SemanticError{Msg: "unary minus applied to a non-numeric expression"}
		}
		return typeNumeric, nil

	case *BinaryExpr:
		lt, err := typeOf(n.Left, schema)
		if err != nil {
			return 0, err
		}
		rt, err := typeOf(n.Right, schema)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case OpAnd, OpOr:
			if lt != typeBool || rt != typeBool {
				return 0, &umbraerr.SemanticError{Msg: fmt.Sprintf("%s applied to non-boolean operands", n.Op)}
			}
			return typeBool, nil
		case OpAdd, OpSub, OpMul, OpDiv:
			if lt != typeNumeric || rt != typeNumeric {
				return 0, &umbraerr.SemanticError{Msg: fmt.Sprintf("arithmetic %s applied to non-numeric operands", n.Op)}
			}
			return typeNumeric, nil
		default: // comparisons
			if lt == typeNull || rt == typeNull {
				return typeBool, nil
			}
			if lt != rt {
				return 0, &umbraerr.SemanticError{Msg: fmt.Sprintf("cannot compare %s with %s", typeName(lt), typeName(rt))}
			}
			if lt == typeString && n.Op != OpEq && n.Op != OpNeq {
				return 0, &umbraerr.SemanticError{Msg: fmt.Sprintf("strings compare only with = and !=, not %s", n.Op)}
			}
			return typeBool, nil
		}

	case *CountStar:
		return 0, &umbraerr.SemanticError{Msg: "COUNT(*) is not allowed inside an expression"}
	}
	return 0, &umbraerr.Internal{Msg: fmt.Sprintf("unhandled expression node %T", e)}
}

// TablesReferenced returns the table a statement touches, for logging
// and preflight reporting.
func TablesReferenced(stmt Statement) string {
	switch s := stmt.(type) {
	case *SelectStmt:
		return s.Table
	case *InsertStmt:
		return s.Table
	case *UpdateStmt:
		return s.Table
	case *DeleteStmt:
		return s.Table
	case *CreateTableStmt:
		return s.Table
	case *CreateIndexStmt:
		return s.Table
	}
	return ""
}
