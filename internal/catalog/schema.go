// Package catalog holds the canonical column types, table schemas and
// the fixed record layout derived from them. Everything downstream (the
// kernel synthesizer, the page emitter, the executor) derives byte
// offsets from this one package so the compiled artifacts and the Go
// side never disagree about where a field lives.
package catalog

import (
	"fmt"
	"strings"

	"umbra/internal/umbraerr"
)

// DataType is the closed set of column types.
type DataType string

const (
	TypeInt32   DataType = "int32"
	TypeFloat64 DataType = "float64"
	TypeBool    DataType = "bool"
	TypeDate    DataType = "date"
	TypeVarchar DataType = "varchar"
	TypeText    DataType = "text"
)

// TextCapacity is the fixed byte bound of a TEXT column.
const TextCapacity = 4096

// UUIDLength is the storage length of the engine-managed uuid column.
const UUIDLength = 36

// MaxVarcharLength bounds VARCHAR declarations.
const MaxVarcharLength = 65535

// Column describes one column of a table.
type Column struct {
	Name        string
	Type        DataType
	Length      int // varchar capacity, excluding the trailing NUL
	Nullable    bool
	PrimaryKey  bool
	HasDefault  bool
	DefaultText string // literal text, evaluated at insert time
}

// Index is a catalog-recorded secondary index. Indexes have no planning
// effect in this version; CREATE INDEX records them and nothing more.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Schema is the full definition of one table.
type Schema struct {
	Table   string
	Columns []Column
	Indexes []Index
}

// UUIDColumn is the engine-managed primary key column prepended to
// every table.
func UUIDColumn() Column {
	return Column{
		Name:       "uuid",
		Type:       TypeVarchar,
		Length:     UUIDLength,
		PrimaryKey: true,
	}
}

// FindColumn returns the index of the named column, or -1.
func (s *Schema) FindColumn(name string) int {
	for i, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// PrimaryKeyIndices returns the positions of all primary key columns.
func (s *Schema) PrimaryKeyIndices() []int {
	var out []int
	for i, c := range s.Columns {
		if c.PrimaryKey {
			out = append(out, i)
		}
	}
	return out
}

// ColumnNames returns the column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// FindIndex returns the named index, or nil.
func (s *Schema) FindIndex(name string) *Index {
	for i := range s.Indexes {
		if strings.EqualFold(s.Indexes[i].Name, name) {
			return &s.Indexes[i]
		}
	}
	return nil
}

// Validate checks the structural invariants of a schema: at least one
// column, unique names, non-nullable primary keys, varchar lengths in
// range, and the mandatory uuid Varchar(36) column at position 0.
func (s *Schema) Validate() error {
	if s.Table == "" {
		return &umbraerr.SemanticError{Msg: "table name is empty"}
	}
	if len(s.Columns) == 0 {
		return &umbraerr.SemanticError{Msg: "table has no columns"}
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		lower := strings.ToLower(c.Name)
		if c.Name == "" {
			return &umbraerr.SemanticError{Msg: "column name is empty"}
		}
		if seen[lower] {
			return &umbraerr.SemanticError{Msg: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[lower] = true
		if c.PrimaryKey && c.Nullable {
			return &umbraerr.SemanticError{Msg: fmt.Sprintf("primary key column %q cannot be nullable", c.Name)}
		}
		if c.Type == TypeVarchar && (c.Length < 1 || c.Length > MaxVarcharLength) {
			return &umbraerr.SemanticError{Msg: fmt.Sprintf("varchar length %d on %q out of range [1, %d]", c.Length, c.Name, MaxVarcharLength)}
		}
	}
	u := s.Columns[0]
	if !strings.EqualFold(u.Name, "uuid") || u.Type != TypeVarchar || u.Length != UUIDLength {
		return &umbraerr.SemanticError{Msg: "first column must be uuid VARCHAR(36)"}
	}
	return nil
}

func (s *Schema) String() string {
	return fmt.Sprintf("Table: %s (%d cols, %d indexes)", s.Table, len(s.Columns), len(s.Indexes))
}

// ParseDataType maps a SQL type keyword to a DataType. VARCHAR lengths
// are carried separately by the caller.
func ParseDataType(raw string) (DataType, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "INT", "INTEGER":
		return TypeInt32, true
	case "FLOAT", "DOUBLE", "REAL":
		return TypeFloat64, true
	case "BOOL", "BOOLEAN":
		return TypeBool, true
	case "DATE", "DATETIME", "TIMESTAMP":
		return TypeDate, true
	case "VARCHAR", "CHAR":
		return TypeVarchar, true
	case "TEXT":
		return TypeText, true
	default:
		return "", false
	}
}
