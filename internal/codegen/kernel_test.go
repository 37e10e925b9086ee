package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umbra/internal/catalog"
	"umbra/internal/sql"
)

func usersSchema() *catalog.Schema {
	return &catalog.Schema{
		Table: "users",
		Columns: []catalog.Column{
			catalog.UUIDColumn(),
			{Name: "id", Type: catalog.TypeInt32, Nullable: true},
			{Name: "name", Type: catalog.TypeVarchar, Length: 64, Nullable: true},
			{Name: "age", Type: catalog.TypeInt32, Nullable: true},
		},
	}
}

func planFor(t *testing.T, src string) *Plan {
	t.Helper()
	stmt, err := sql.Parse(src)
	require.NoError(t, err)
	sel := stmt.(*sql.SelectStmt)
	schema := usersSchema()
	require.NoError(t, sql.ValidateSelect(sel, schema))
	return PlanSelect(sel, schema)
}

func TestKernelSourceDeterministic(t *testing.T) {
	a := planFor(t, "SELECT name FROM users WHERE age > 21")
	b := planFor(t, "select name from users where age > 21")

	assert.Equal(t, a.Fingerprint, b.Fingerprint)

	srcA, err := KernelSource(a)
	require.NoError(t, err)
	srcB, err := KernelSource(b)
	require.NoError(t, err)
	assert.Equal(t, srcA, srcB)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := planFor(t, "SELECT name FROM users WHERE age > 21")

	differentPred := planFor(t, "SELECT name FROM users WHERE age > 22")
	assert.NotEqual(t, base.Fingerprint, differentPred.Fingerprint)

	differentProj := planFor(t, "SELECT age FROM users WHERE age > 21")
	assert.NotEqual(t, base.Fingerprint, differentProj.Fingerprint)

	star := planFor(t, "SELECT * FROM users WHERE age > 21")
	assert.NotEqual(t, base.Fingerprint, star.Fingerprint)
}

func TestFingerprintIncludesSchemaHash(t *testing.T) {
	stmt, err := sql.Parse("SELECT name FROM users WHERE age > 21")
	require.NoError(t, err)
	sel := stmt.(*sql.SelectStmt)

	a := PlanSelect(sel, usersSchema())
	changed := usersSchema()
	changed.Columns[2].Length = 80
	b := PlanSelect(sel, changed)
	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
}

func TestProjectionKernelShape(t *testing.T) {
	// Select list order differs from schema order; the projection keeps
	// schema order.
	plan := planFor(t, "SELECT age, name FROM users WHERE age >= 21")
	require.Equal(t, KindProjection, plan.Kind)
	assert.Equal(t, []int{2, 3}, plan.Projection)
	assert.Equal(t, []string{"name", "age"}, plan.Result.ColumnNames())

	src, err := KernelSource(plan)
	require.NoError(t, err)
	assert.Contains(t, src, "typedef struct {")
	assert.Contains(t, src, "} users_projection;")
	assert.Contains(t, src, "(rec->age >= 21)")
	assert.Contains(t, src, "memcpy(out[matched].name, rec->name, sizeof(rec->name));")
	assert.Contains(t, src, "out[matched].age = rec->age;")
	assert.Contains(t, src, "if (matched >= max_results) break;")
	assert.Contains(t, src, "int "+plan.SymbolName()+"(const users_record *data, int count, void *results, int max_results)")
}

func TestCountKernelIgnoresMaxResults(t *testing.T) {
	plan := planFor(t, "SELECT COUNT(*) FROM users WHERE age >= 21")
	require.Equal(t, KindCount, plan.Kind)

	src, err := KernelSource(plan)
	require.NoError(t, err)
	assert.Contains(t, src, "(void)max_results;")
	assert.Contains(t, src, "((int32_t *)results)[0] = matched;")
	assert.Contains(t, src, "return 1;")
	assert.NotContains(t, src, "break;")
}

func TestStarKernelCopiesRecords(t *testing.T) {
	plan := planFor(t, "SELECT * FROM users")
	require.Equal(t, KindStar, plan.Kind)

	src, err := KernelSource(plan)
	require.NoError(t, err)
	assert.Contains(t, src, "memcpy(&out[matched], rec, sizeof(users_record));")
	// No predicate: the guard collapses to a constant.
	assert.Contains(t, src, "if (!(1)) continue;")
}

func TestPredicateLowering(t *testing.T) {
	cases := []struct {
		where string
		want  string
	}{
		{"name = 'ann'", `(strcmp(rec->name, "ann") == 0)`},
		{"name != 'ann'", `(strcmp(rec->name, "ann") != 0)`},
		{"age > 21 AND id < 5", "((rec->age > 21) && (rec->id < 5))"},
		{"age > 21 OR id < 5", "((rec->age > 21) || (rec->id < 5))"},
		{"NOT age > 21", "(!(rec->age > 21))"},
		{"age + 1 = 22", "((rec->age + 1) == 22)"},
		{"uuid = 'x'", `(strcmp(rec->uuid, "x") == 0)`},
	}
	schema := usersSchema()
	for _, tc := range cases {
		plan := planFor(t, "SELECT * FROM users WHERE "+tc.where)
		lowered, err := lowerExpr(plan.Predicate, schema)
		require.NoError(t, err)
		assert.Equal(t, tc.want, lowered, "where %q", tc.where)
	}
}

func TestKernelExportsABIVersion(t *testing.T) {
	plan := planFor(t, "SELECT * FROM users")
	src, err := KernelSource(plan)
	require.NoError(t, err)
	assert.Contains(t, src, "const unsigned int abi_version")
}

func TestCStringLitEscaping(t *testing.T) {
	assert.Equal(t, `"ann"`, cStringLit("ann"))
	assert.Equal(t, `"it\"s"`, cStringLit(`it"s`))
	assert.Equal(t, `"a\\b"`, cStringLit(`a\b`))
	assert.Equal(t, `"line\n"`, cStringLit("line\n"))
	assert.Equal(t, `"\001"`, cStringLit("\x01"))
}
