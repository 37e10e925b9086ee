// Package codegen turns validated statements into C source: the record
// struct shared by pages and kernels, page libraries (static record
// arrays with count/read), and scan kernels specialized to one
// (table, predicate, projection) triple. All byte offsets come from
// catalog's layout rules, so generated structs and Go-side decoding
// agree bit for bit.
package codegen

import (
	"fmt"
	"strings"

	"umbra/internal/catalog"
)

func cFieldDecl(c catalog.Column) string {
	switch c.Type {
	case catalog.TypeInt32:
		return fmt.Sprintf("int32_t %s;", c.Name)
	case catalog.TypeFloat64:
		return fmt.Sprintf("double %s;", c.Name)
	case catalog.TypeBool:
		return fmt.Sprintf("uint8_t %s;", c.Name)
	case catalog.TypeDate:
		return fmt.Sprintf("int64_t %s;", c.Name)
	case catalog.TypeVarchar:
		return fmt.Sprintf("char %s[%d];", c.Name, c.Length+1)
	default: // text
		return fmt.Sprintf("char %s[%d];", c.Name, catalog.TextCapacity+1)
	}
}

// recordStruct emits the typedef for a record of the given schema under
// the given type name. Field order is schema order; the C compiler's
// natural alignment reproduces catalog.FieldOffsets exactly.
func recordStruct(s *catalog.Schema, typeName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "typedef struct {\n")
	for _, c := range s.Columns {
		fmt.Fprintf(&b, "    %s\n", cFieldDecl(c))
	}
	fmt.Fprintf(&b, "} %s;\n", typeName)
	return b.String()
}

func recordTypeName(s *catalog.Schema) string {
	return s.Table + "_record"
}

// cStringLit renders a Go string as a C string literal, escaping
// quotes, backslashes and non-printable bytes with octal escapes.
func cStringLit(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			b.WriteString(`\"`)
		case c == '\\':
			b.WriteString(`\\`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
