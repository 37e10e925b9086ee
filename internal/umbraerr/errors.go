// Package umbraerr declares the error kinds the engine surfaces to
// callers. Every failure path returns one of these types, usually
// wrapped with fmt.Errorf("%w"); there is no global last-error state.
package umbraerr

import "fmt"

// ParseError is reported by the lexer and parser with the 1-based
// position of the offending token.
type ParseError struct {
	Line, Col int
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// SemanticError is reported by statement validation against a schema.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string {
	return "semantic error: " + e.Msg
}

// SchemaNotFound means the referenced table has no schema on disk.
type SchemaNotFound struct {
	Name string
}

func (e *SchemaNotFound) Error() string {
	return fmt.Sprintf("table %q does not exist", e.Name)
}

// ColumnNotFound means a column reference did not resolve.
type ColumnNotFound struct {
	Name string
}

func (e *ColumnNotFound) Error() string {
	return fmt.Sprintf("column %q does not exist", e.Name)
}

// TypeMismatch means a literal or expression is not comparable or
// assignable to the column it is used with.
type TypeMismatch struct {
	Column string
	Want   string
	Got    string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch on %q: want %s, got %s", e.Column, e.Want, e.Got)
}

// DuplicateTable is returned by CREATE TABLE for an existing name.
type DuplicateTable struct {
	Name string
}

func (e *DuplicateTable) Error() string {
	return fmt.Sprintf("table %q already exists", e.Name)
}

// CompileFailed carries the external compiler's stderr.
type CompileFailed struct {
	Path   string
	Output string
}

func (e *CompileFailed) Error() string {
	return fmt.Sprintf("compiling %s failed: %s", e.Path, e.Output)
}

// LoadFailed means a compiled artifact could not be opened or a symbol
// was missing.
type LoadFailed struct {
	Path   string
	Reason string
}

func (e *LoadFailed) Error() string {
	return fmt.Sprintf("loading %s failed: %s", e.Path, e.Reason)
}

// AbiMismatch means a compiled artifact was built against a different
// schema than the catalog currently holds.
type AbiMismatch struct {
	Path     string
	Expected uint32
	Found    uint32
}

func (e *AbiMismatch) Error() string {
	return fmt.Sprintf("%s: abi version %#x does not match schema %#x", e.Path, e.Found, e.Expected)
}

// IoError wraps a filesystem failure with the path it happened on.
type IoError struct {
	Path  string
	Cause error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error on %s: %v", e.Path, e.Cause)
}

func (e *IoError) Unwrap() error { return e.Cause }

// OutOfSpace means the executor's result buffer filled up.
type OutOfSpace struct {
	Limit int
}

func (e *OutOfSpace) Error() string {
	return fmt.Sprintf("result buffer full (%d rows)", e.Limit)
}

// InvalidUtf8 is returned when string data read back from a page is not
// valid UTF-8.
type InvalidUtf8 struct {
	Column string
}

func (e *InvalidUtf8) Error() string {
	return fmt.Sprintf("column %q holds invalid utf-8", e.Column)
}

// Internal flags a broken engine invariant.
type Internal struct {
	Msg string
}

func (e *Internal) Error() string {
	return "internal error: " + e.Msg
}

// Partial reports how many rows a mutation applied before it failed.
// It always wraps the underlying cause.
type Partial struct {
	RowsAffected int64
	Cause        error
}

func (e *Partial) Error() string {
	return fmt.Sprintf("partial mutation (%d rows applied): %v", e.RowsAffected, e.Cause)
}

func (e *Partial) Unwrap() error { return e.Cause }
