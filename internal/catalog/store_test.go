package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umbra/internal/umbraerr"
)

func TestSchemaSaveLoadRoundTrip(t *testing.T) {
	dirs := Dirs{Base: t.TempDir()}
	require.NoError(t, dirs.Bootstrap())

	s := testSchema()
	s.Columns[3].HasDefault = true
	s.Columns[3].DefaultText = "18"
	s.Indexes = []Index{{Name: "idx_name", Columns: []string{"name"}, Unique: true}}
	require.NoError(t, SaveSchema(s, dirs))

	loaded, err := LoadSchema("users", dirs)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
	assert.Equal(t, s.Hash(), loaded.Hash())
}

func TestLoadSchemaMissing(t *testing.T) {
	dirs := Dirs{Base: t.TempDir()}
	_, err := LoadSchema("ghost", dirs)
	var notFound *umbraerr.SchemaNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "ghost", notFound.Name)
}

func TestSaveSchemaRejectsInvalid(t *testing.T) {
	dirs := Dirs{Base: t.TempDir()}
	bad := testSchema()
	bad.Columns = bad.Columns[1:] // drops the uuid column
	require.Error(t, SaveSchema(bad, dirs))
}

func TestTableListing(t *testing.T) {
	dirs := Dirs{Base: t.TempDir()}
	require.NoError(t, dirs.Bootstrap())

	tables, err := ListTables(dirs)
	require.NoError(t, err)
	assert.Empty(t, tables)

	require.NoError(t, SaveSchema(testSchema(), dirs))
	assert.True(t, TableExists("users", dirs))
	assert.False(t, TableExists("ghost", dirs))

	tables, err = ListTables(dirs)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)
}

func TestMetadataRoundTrip(t *testing.T) {
	dirs := Dirs{Base: t.TempDir()}
	require.NoError(t, dirs.Bootstrap())

	m := NewTableMetadata("users", "umbra", 65535)
	m.PageCount = 3
	m.RecordCount = 12345
	require.NoError(t, SaveMetadata(m, dirs))

	loaded, err := LoadMetadata("users", dirs)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestMetadataMissingIsZero(t *testing.T) {
	dirs := Dirs{Base: t.TempDir()}
	m, err := LoadMetadata("users", dirs)
	require.NoError(t, err)
	assert.Equal(t, "users", m.Name)
	assert.Zero(t, m.PageCount)
	assert.Zero(t, m.RecordCount)
}

func TestMetadataTouch(t *testing.T) {
	m := NewTableMetadata("users", "umbra", 2)
	created := m.CreatedAt
	time.Sleep(1100 * time.Millisecond)
	m.Touch()
	assert.Greater(t, m.ModifiedAt, created)
}

func TestDirsLayout(t *testing.T) {
	dirs := Dirs{Base: "/db"}
	assert.Equal(t, "/db/tables/users/users.schema", dirs.SchemaPath("users"))
	assert.Equal(t, "/db/tables/users/metadata/table_metadata.dat", dirs.MetadataPath("users"))
	assert.Equal(t, "/db/tables/users/src/page_2.src", dirs.PageSourcePath("users", 2))
	assert.Equal(t, "/db/compiled/usersData_2.so", dirs.PageLibraryPath("users", 2))
	assert.Equal(t, "/db/kernels/umbra_k_ab_users.src", dirs.KernelSourcePath("umbra_k_ab", "users"))
	assert.Equal(t, "/db/compiled/umbra_k_ab_users.so", dirs.KernelLibraryPath("umbra_k_ab", "users"))
}
