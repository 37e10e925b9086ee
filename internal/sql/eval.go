package sql

import (
	"fmt"

	"umbra/internal/catalog"
	"umbra/internal/umbraerr"
)

// Eval computes an expression against an optional current row. INSERT
// paths pass a nil row (literal arithmetic only); UPDATE assignments
// pass the record being rewritten so SET c = c + 1 works.
func Eval(e Expr, schema *catalog.Schema, row []catalog.Value) (catalog.Value, error) {
	switch n := e.(type) {
	case *Literal:
		switch n.Kind {
		case LitInt:
			return catalog.IntValue(n.Int), nil
		case LitFloat:
			return catalog.FloatValue(n.Float), nil
		case LitString:
			return catalog.StringValue(catalog.TypeVarchar, n.Str), nil
		case LitBool:
			return catalog.BoolValue(n.Bool), nil
		case LitNull:
			return catalog.Value{}, nil
		}

	case *ColumnRef:
		if row == nil || schema == nil {
			return catalog.Value{}, &umbraerr.SemanticError{Msg: fmt.Sprintf("column reference %q is not allowed here", n.Name)}
		}
		idx := schema.FindColumn(n.Name)
		if idx < 0 {
			return catalog.Value{}, &umbraerr.ColumnNotFound{Name: n.Name}
		}
		return row[idx], nil

	case *NotExpr:
		v, err := Eval(n.Operand, schema, row)
		if err != nil {
			return catalog.Value{}, err
		}
		return catalog.BoolValue(!v.Bool), nil

	case *NegExpr:
		v, err := Eval(n.Operand, schema, row)
		if err != nil {
			return catalog.Value{}, err
		}
		switch v.Type {
		case catalog.TypeFloat64:
			return catalog.FloatValue(-v.Float), nil
		default:
			return catalog.IntValue(-v.Int), nil
		}

	case *BinaryExpr:
		l, err := Eval(n.Left, schema, row)
		if err != nil {
			return catalog.Value{}, err
		}
		r, err := Eval(n.Right, schema, row)
		if err != nil {
			return catalog.Value{}, err
		}
		return evalArith(n.Op, l, r)
	}
	return catalog.Value{}, &umbraerr.SemanticError{Msg: fmt.Sprintf("expression %s cannot be evaluated", ExprString(e))}
}

func evalArith(op BinOp, l, r catalog.Value) (catalog.Value, error) {
	switch op {
	case OpAnd:
		return catalog.BoolValue(l.Bool && r.Bool), nil
	case OpOr:
		return catalog.BoolValue(l.Bool || r.Bool), nil
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return evalCompare(op, l, r), nil
	}

	asFloat := l.Type == catalog.TypeFloat64 || r.Type == catalog.TypeFloat64
	if asFloat {
		lf, rf := numeric(l), numeric(r)
		switch op {
		case OpAdd:
			return catalog.FloatValue(lf + rf), nil
		case OpSub:
			return catalog.FloatValue(lf - rf), nil
		case OpMul:
			return catalog.FloatValue(lf * rf), nil
		case OpDiv:
			if rf == 0 {
				return catalog.Value{}, &umbraerr.SemanticError{Msg: "division by zero"}
			}
			return catalog.FloatValue(lf / rf), nil
		}
	}
	switch op {
	case OpAdd:
		return catalog.IntValue(l.Int + r.Int), nil
	case OpSub:
		return catalog.IntValue(l.Int - r.Int), nil
	case OpMul:
		return catalog.IntValue(l.Int * r.Int), nil
	case OpDiv:
		if r.Int == 0 {
			return catalog.Value{}, &umbraerr.SemanticError{Msg: "division by zero"}
		}
		return catalog.IntValue(l.Int / r.Int), nil
	}
	return catalog.Value{}, &umbraerr.Internal{Msg: fmt.Sprintf("unhandled operator %s", op)}
}

func evalCompare(op BinOp, l, r catalog.Value) catalog.Value {
	var cmp int
	if l.Type == catalog.TypeFloat64 || r.Type == catalog.TypeFloat64 {
		lf, rf := numeric(l), numeric(r)
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
	} else {
		cmp = catalog.Compare(l, r)
	}
	switch op {
	case OpEq:
		return catalog.BoolValue(cmp == 0)
	case OpNeq:
		return catalog.BoolValue(cmp != 0)
	case OpLt:
		return catalog.BoolValue(cmp < 0)
	case OpLte:
		return catalog.BoolValue(cmp <= 0)
	case OpGt:
		return catalog.BoolValue(cmp > 0)
	default:
		return catalog.BoolValue(cmp >= 0)
	}
}

func numeric(v catalog.Value) float64 {
	if v.Type == catalog.TypeFloat64 {
		return v.Float
	}
	return float64(v.Int)
}

// Coerce fits an evaluated value into a column's storage type: int to
// float widening, date parsing from integers or 'YYYY-MM-DD' strings,
// and varchar truncation to the declared capacity.
func Coerce(v catalog.Value, col catalog.Column) (catalog.Value, error) {
	zero := v.Type == "" // NULL literal
	switch col.Type {
	case catalog.TypeInt32:
		if zero {
			return catalog.IntValue(0), nil
		}
		if v.Type == catalog.TypeFloat64 {
			return catalog.Value{}, &umbraerr.TypeMismatch{Column: col.Name, Want: "int32", Got: "float64"}
		}
		return catalog.IntValue(v.Int), nil

	case catalog.TypeFloat64:
		if zero {
			return catalog.FloatValue(0), nil
		}
		return catalog.FloatValue(numeric(v)), nil

	case catalog.TypeBool:
		if zero {
			return catalog.BoolValue(false), nil
		}
		return catalog.BoolValue(v.Bool), nil

	case catalog.TypeDate:
		if zero {
			return catalog.DateValue(0), nil
		}
		switch v.Type {
		case catalog.TypeVarchar, catalog.TypeText:
			secs, err := catalog.ParseDate(v.Str)
			if err != nil {
				return catalog.Value{}, &umbraerr.TypeMismatch{Column: col.Name, Want: "date", Got: fmt.Sprintf("%q", v.Str)}
			}
			return catalog.DateValue(secs), nil
		default:
			return catalog.DateValue(v.Int), nil
		}

	case catalog.TypeVarchar, catalog.TypeText:
		if zero {
			return catalog.StringValue(col.Type, ""), nil
		}
		s := v.Str
		capacity := col.Length
		if col.Type == catalog.TypeText {
			capacity = catalog.TextCapacity
		}
		if len(s) > capacity {
			s = s[:capacity]
		}
		return catalog.StringValue(col.Type, s), nil
	}
	return catalog.Value{}, &umbraerr.Internal{Msg: "unknown column type " + string(col.Type)}
}

// EvalDefault parses and evaluates a column's stored default literal.
func EvalDefault(col catalog.Column, schema *catalog.Schema) (catalog.Value, error) {
	if !col.HasDefault {
		return Coerce(catalog.Value{}, col)
	}
	text := col.DefaultText
	if col.Type == catalog.TypeVarchar || col.Type == catalog.TypeText ||
		(col.Type == catalog.TypeDate && !isNumericText(text)) {
		return Coerce(catalog.StringValue(catalog.TypeVarchar, text), col)
	}
	p := NewParser(text)
	e, err := p.expr()
	if err != nil {
		return catalog.Value{}, fmt.Errorf("default for %q: %w", col.Name, err)
	}
	v, err := Eval(e, schema, nil)
	if err != nil {
		return catalog.Value{}, fmt.Errorf("default for %q: %w", col.Name, err)
	}
	return Coerce(v, col)
}

func isNumericText(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' && i == 0 {
			continue
		}
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}
