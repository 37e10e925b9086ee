package codegen

import (
	"fmt"
	"strings"

	"umbra/internal/catalog"
	"umbra/internal/umbraerr"
)

// PageSource emits the C translation unit for one page: a static array
// with one initializer per record, count(), read(pos) returning NULL
// past the end, and the exported abi_version.
func PageSource(s *catalog.Schema, records [][]catalog.Value) (string, error) {
	recType := recordTypeName(s)
	var b strings.Builder

	b.WriteString("#include <stdint.h>\n#include <stddef.h>\n\n")
	b.WriteString(recordStruct(s, recType))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "const unsigned int abi_version = 0x%08xu;\n\n", s.Hash())

	n := len(records)
	if n == 0 {
		// C rejects empty initializer lists; keep one slot and report zero.
		fmt.Fprintf(&b, "static %s records[1];\n\n", recType)
	} else {
		fmt.Fprintf(&b, "static %s records[%d] = {\n", recType, n)
		for _, row := range records {
			init, err := recordInitializer(s, row)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "    %s,\n", init)
		}
		b.WriteString("};\n\n")
	}

	fmt.Fprintf(&b, "int count(void) {\n    return %d;\n}\n\n", n)
	fmt.Fprintf(&b, "const %s *read(int pos) {\n", recType)
	fmt.Fprintf(&b, "    if (pos < 0 || pos >= %d) {\n        return NULL;\n    }\n", n)
	b.WriteString("    return &records[pos];\n}\n")
	return b.String(), nil
}

func recordInitializer(s *catalog.Schema, row []catalog.Value) (string, error) {
	if len(row) != len(s.Columns) {
		return "", &umbraerr.Internal{Msg: fmt.Sprintf("record has %d values for %d columns", len(row), len(s.Columns))}
	}
	parts := make([]string, len(row))
	for i, c := range s.Columns {
		v := row[i]
		switch c.Type {
		case catalog.TypeInt32:
			parts[i] = fmt.Sprintf("%d", int32(v.Int))
		case catalog.TypeFloat64:
			parts[i] = fmt.Sprintf("%g", v.Float)
		case catalog.TypeBool:
			if v.Bool {
				parts[i] = "1"
			} else {
				parts[i] = "0"
			}
		case catalog.TypeDate:
			parts[i] = fmt.Sprintf("%dll", v.Int)
		case catalog.TypeVarchar, catalog.TypeText:
			parts[i] = cStringLit(v.Str)
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}
