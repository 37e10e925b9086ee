package catalog

import (
	"hash/fnv"
	"strconv"
)

// Storage geometry of each type in the compiled record struct. The
// values mirror the C declarations the code generator emits (int32_t,
// double, uint8_t, int64_t, char[n+1]); natural alignment on every
// target we compile for.

// StorageSize returns the byte width of one column's storage.
func StorageSize(c Column) int {
	switch c.Type {
	case TypeInt32:
		return 4
	case TypeFloat64, TypeDate:
		return 8
	case TypeBool:
		return 1
	case TypeVarchar:
		return c.Length + 1 // trailing NUL
	case TypeText:
		return TextCapacity + 1
	}
	return 0
}

// StorageAlign returns the alignment requirement of one column.
func StorageAlign(c Column) int {
	switch c.Type {
	case TypeInt32:
		return 4
	case TypeFloat64, TypeDate:
		return 8
	default:
		return 1
	}
}

func alignUp(n, a int) int {
	return (n + a - 1) / a * a
}

// FieldOffsets returns the byte offset of every column within a record.
// Fields are laid out in schema order, each aligned to its own
// requirement, matching what the C compiler does with the generated
// struct.
func FieldOffsets(s *Schema) []int {
	offsets := make([]int, len(s.Columns))
	off := 0
	for i, c := range s.Columns {
		off = alignUp(off, StorageAlign(c))
		offsets[i] = off
		off += StorageSize(c)
	}
	return offsets
}

// RecordSize returns the fixed byte width of one record, including the
// tail padding the C compiler adds to keep arrays of records aligned.
func RecordSize(s *Schema) int {
	maxAlign := 1
	off := 0
	for _, c := range s.Columns {
		if a := StorageAlign(c); a > maxAlign {
			maxAlign = a
		}
		off = alignUp(off, StorageAlign(c)) + StorageSize(c)
	}
	return alignUp(off, maxAlign)
}

// Hash returns the schema's ABI version: an FNV-1a digest of the
// canonical schema text. Pages and kernels export this value so the
// loader can reject artifacts built against a stale schema.
func (s *Schema) Hash() uint32 {
	h := fnv.New32a()
	h.Write([]byte(s.canonical()))
	return h.Sum32()
}

func (s *Schema) canonical() string {
	out := s.Table
	for _, c := range s.Columns {
		out += "|" + c.Name + ":" + string(c.Type)
		if c.Type == TypeVarchar {
			out += ":" + strconv.Itoa(c.Length)
		}
		if c.Nullable {
			out += ":null"
		}
		if c.PrimaryKey {
			out += ":pk"
		}
	}
	return out
}
