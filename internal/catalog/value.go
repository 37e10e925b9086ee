package catalog

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"umbra/internal/umbraerr"
)

// Value is a single cell. The Type tag picks which field is live.
// Nulls are sentinel values (0, empty string, false); there is no
// separate null marker, matching the record layout.
type Value struct {
	Type  DataType
	Int   int64 // Int32 and Date (unix seconds)
	Float float64
	Bool  bool
	Str   string
}

func IntValue(v int64) Value     { return Value{Type: TypeInt32, Int: v} }
func FloatValue(v float64) Value { return Value{Type: TypeFloat64, Float: v} }
func BoolValue(v bool) Value     { return Value{Type: TypeBool, Bool: v} }
func DateValue(v int64) Value    { return Value{Type: TypeDate, Int: v} }

func StringValue(t DataType, s string) Value { return Value{Type: t, Str: s} }

// Zero returns the null sentinel for a column.
func Zero(c Column) Value {
	return Value{Type: c.Type}
}

// String renders the value the way the formatters print it.
func (v Value) String() string {
	switch v.Type {
	case TypeInt32:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeDate:
		if v.Int == 0 {
			return ""
		}
		return time.Unix(v.Int, 0).UTC().Format("2006-01-02 15:04:05")
	default:
		return v.Str
	}
}

// Compare orders two values of the same type: -1, 0, or 1. Strings
// compare lexicographically, which is also what the generated kernels
// do with strcmp.
func Compare(a, b Value) int {
	switch a.Type {
	case TypeInt32, TypeDate:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		}
		return 0
	case TypeFloat64:
		switch {
		case a.Float < b.Float:
			return -1
		case a.Float > b.Float:
			return 1
		}
		return 0
	case TypeBool:
		switch {
		case !a.Bool && b.Bool:
			return -1
		case a.Bool && !b.Bool:
			return 1
		}
		return 0
	default:
		return strings.Compare(a.Str, b.Str)
	}
}

// ParseDate accepts an integer of unix seconds or a 'YYYY-MM-DD'
// ('YYYY-MM-DD HH:MM:SS') literal and returns unix seconds UTC.
func ParseDate(text string) (int64, error) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("invalid date literal %q", text)
}

// EncodeRecord lays values out as one record image per FieldOffsets,
// the exact byte form a compiled page holds. Inverse of DecodeRecord.
func EncodeRecord(s *Schema, row []Value) ([]byte, error) {
	if len(row) != len(s.Columns) {
		return nil, &umbraerr.Internal{Msg: fmt.Sprintf("record has %d values for %d columns", len(row), len(s.Columns))}
	}
	buf := make([]byte, RecordSize(s))
	offsets := FieldOffsets(s)
	for i, c := range s.Columns {
		field := buf[offsets[i]:]
		v := row[i]
		switch c.Type {
		case TypeInt32:
			binary.LittleEndian.PutUint32(field, uint32(int32(v.Int)))
		case TypeFloat64:
			binary.LittleEndian.PutUint64(field, math.Float64bits(v.Float))
		case TypeBool:
			if v.Bool {
				field[0] = 1
			} else {
				field[0] = 0
			}
		case TypeDate:
			binary.LittleEndian.PutUint64(field, uint64(v.Int))
		case TypeVarchar, TypeText:
			n := StorageSize(c) - 1
			str := v.Str
			if len(str) > n {
				str = str[:n]
			}
			copy(field[:n], str)
		}
	}
	return buf, nil
}

// DecodeRecord reads one record image laid out per FieldOffsets back
// into values. buf must be at least RecordSize(s) long.
func DecodeRecord(s *Schema, buf []byte) ([]Value, error) {
	if len(buf) < RecordSize(s) {
		return nil, &umbraerr.Internal{Msg: fmt.Sprintf("record buffer %d shorter than record size %d", len(buf), RecordSize(s))}
	}
	offsets := FieldOffsets(s)
	out := make([]Value, len(s.Columns))
	for i, c := range s.Columns {
		field := buf[offsets[i]:]
		switch c.Type {
		case TypeInt32:
			out[i] = IntValue(int64(int32(binary.LittleEndian.Uint32(field))))
		case TypeFloat64:
			out[i] = Value{Type: TypeFloat64, Float: math.Float64frombits(binary.LittleEndian.Uint64(field))}
		case TypeBool:
			out[i] = BoolValue(field[0] != 0)
		case TypeDate:
			out[i] = DateValue(int64(binary.LittleEndian.Uint64(field)))
		case TypeVarchar, TypeText:
			str, err := cString(field[:StorageSize(c)], c.Name)
			if err != nil {
				return nil, err
			}
			out[i] = StringValue(c.Type, str)
		}
	}
	return out, nil
}

func cString(field []byte, column string) (string, error) {
	n := 0
	for n < len(field) && field[n] != 0 {
		n++
	}
	s := string(field[:n])
	if !utf8.ValidString(s) {
		return "", &umbraerr.InvalidUtf8{Column: column}
	}
	return s, nil
}
