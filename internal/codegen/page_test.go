package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umbra/internal/catalog"
)

func sampleRows() [][]catalog.Value {
	mk := func(uuid string, id int64, name string, age int64) []catalog.Value {
		return []catalog.Value{
			catalog.StringValue(catalog.TypeVarchar, uuid),
			catalog.IntValue(id),
			catalog.StringValue(catalog.TypeVarchar, name),
			catalog.IntValue(age),
		}
	}
	return [][]catalog.Value{
		mk("0f8fad5b-d9cb-469f-a165-70867728950e", 1, "ann", 30),
		mk("7c9e6679-7425-40de-944b-e07fc1f90ae7", 2, "bob", 17),
	}
}

func TestPageSource(t *testing.T) {
	schema := usersSchema()
	src, err := PageSource(schema, sampleRows())
	require.NoError(t, err)

	assert.Contains(t, src, "} users_record;")
	assert.Contains(t, src, "static users_record records[2] = {")
	assert.Contains(t, src, `"ann", 30`)
	assert.Contains(t, src, `"bob", 17`)
	assert.Contains(t, src, "int count(void) {\n    return 2;\n}")
	assert.Contains(t, src, "const users_record *read(int pos) {")
	assert.Contains(t, src, "if (pos < 0 || pos >= 2) {\n        return NULL;\n    }")
	assert.Contains(t, src, "return &records[pos];")
	assert.Contains(t, src, "const unsigned int abi_version")
}

func TestPageSourceEmpty(t *testing.T) {
	src, err := PageSource(usersSchema(), nil)
	require.NoError(t, err)
	assert.Contains(t, src, "static users_record records[1];")
	assert.Contains(t, src, "return 0;")
	assert.NotContains(t, src, "records[0] = {")
}

func TestPageSourceEscapesStrings(t *testing.T) {
	schema := usersSchema()
	rows := sampleRows()[:1]
	rows[0][2] = catalog.StringValue(catalog.TypeVarchar, `a"b\c`)
	src, err := PageSource(schema, rows)
	require.NoError(t, err)
	assert.Contains(t, src, `"a\"b\\c"`)
}

func TestPageSourceAllTypes(t *testing.T) {
	schema := &catalog.Schema{
		Table: "t",
		Columns: []catalog.Column{
			catalog.UUIDColumn(),
			{Name: "n", Type: catalog.TypeInt32},
			{Name: "score", Type: catalog.TypeFloat64},
			{Name: "flag", Type: catalog.TypeBool},
			{Name: "seen", Type: catalog.TypeDate},
			{Name: "body", Type: catalog.TypeText},
		},
	}
	row := []catalog.Value{
		catalog.StringValue(catalog.TypeVarchar, "u"),
		catalog.IntValue(-3),
		catalog.FloatValue(2.5),
		catalog.BoolValue(true),
		catalog.DateValue(1700000000),
		catalog.StringValue(catalog.TypeText, "hello"),
	}
	src, err := PageSource(schema, [][]catalog.Value{row})
	require.NoError(t, err)
	assert.Contains(t, src, `{ "u", -3, 2.5, 1, 1700000000ll, "hello" }`)
	assert.Contains(t, src, "int64_t seen;")
	assert.Contains(t, src, "uint8_t flag;")
	assert.Contains(t, src, "double score;")
	assert.Contains(t, src, "char body[4097];")
}

func TestPageSourceRejectsShortRow(t *testing.T) {
	_, err := PageSource(usersSchema(), [][]catalog.Value{{catalog.IntValue(1)}})
	require.Error(t, err)
}

func TestRecordStructMatchesLayout(t *testing.T) {
	// One struct emitter serves kernels and pages; field order must be
	// schema order so the C layout lines up with catalog.FieldOffsets.
	schema := usersSchema()
	text := recordStruct(schema, "users_record")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, len(schema.Columns)+2)
	assert.Equal(t, "    char uuid[37];", lines[1])
	assert.Equal(t, "    int32_t id;", lines[2])
	assert.Equal(t, "    char name[65];", lines[3])
	assert.Equal(t, "    int32_t age;", lines[4])
}
