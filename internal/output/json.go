package output

import (
	"encoding/json"

	"umbra/internal/catalog"
	"umbra/internal/exec"
)

type jsonFormatter struct{}

type resultPayload struct {
	Format       string           `json:"format"`
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	Count        *int64           `json:"count,omitempty"`
	RowsAffected int64            `json:"rowsAffected,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// FormatResult renders the result as one indented JSON document with
// typed cell values.
func (jsonFormatter) FormatResult(rs *exec.ResultSet) (string, error) {
	if rs == nil {
		return "", nil
	}
	payload := resultPayload{
		Format:       string(FormatJSON),
		Count:        rs.Count,
		RowsAffected: rs.RowsAffected,
		Warnings:     rs.Warnings,
	}
	if rs.Schema != nil {
		payload.Columns = rs.Schema.ColumnNames()
		values, err := rs.AllValues()
		if err != nil {
			return "", err
		}
		for _, row := range values {
			obj := make(map[string]any, len(row))
			for i, v := range row {
				obj[rs.Schema.Columns[i].Name] = jsonValue(v)
			}
			payload.Rows = append(payload.Rows, obj)
		}
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}

func jsonValue(v catalog.Value) any {
	switch v.Type {
	case catalog.TypeInt32:
		return v.Int
	case catalog.TypeFloat64:
		return v.Float
	case catalog.TypeBool:
		return v.Bool
	case catalog.TypeDate:
		return v.String()
	default:
		return v.Str
	}
}
