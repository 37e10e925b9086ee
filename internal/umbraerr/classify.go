package umbraerr

import "errors"

// UserError reports whether an error is the statement author's fault
// (parse or semantic trouble) rather than a runtime failure. The CLI
// maps user errors to exit code 1 and runtime failures to 2.
func UserError(err error) bool {
	var (
		parseErr  *ParseError
		semErr    *SemanticError
		schemaErr *SchemaNotFound
		colErr    *ColumnNotFound
		typeErr   *TypeMismatch
		dupErr    *DuplicateTable
	)
	return errors.As(err, &parseErr) ||
		errors.As(err, &semErr) ||
		errors.As(err, &schemaErr) ||
		errors.As(err, &colErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &dupErr)
}
