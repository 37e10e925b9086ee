package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"umbra/internal/umbraerr"
)

// Dirs resolves every on-disk location under the database base dir.
type Dirs struct {
	Base string
}

func (d Dirs) TablesDir() string             { return filepath.Join(d.Base, "tables") }
func (d Dirs) TableDir(t string) string      { return filepath.Join(d.Base, "tables", t) }
func (d Dirs) SchemaPath(t string) string    { return filepath.Join(d.TableDir(t), t+".schema") }
func (d Dirs) MetadataPath(t string) string  { return filepath.Join(d.TableDir(t), "metadata", "table_metadata.dat") }
func (d Dirs) PageSourceDir(t string) string { return filepath.Join(d.TableDir(t), "src") }
func (d Dirs) CompiledDir() string           { return filepath.Join(d.Base, "compiled") }
func (d Dirs) KernelSourceDir() string       { return filepath.Join(d.Base, "kernels") }

func (d Dirs) PageSourcePath(t string, page int) string {
	return filepath.Join(d.PageSourceDir(t), fmt.Sprintf("page_%d.src", page))
}

func (d Dirs) PageLibraryPath(t string, page int) string {
	return filepath.Join(d.CompiledDir(), fmt.Sprintf("%sData_%d.so", t, page))
}

func (d Dirs) KernelSourcePath(name, t string) string {
	return filepath.Join(d.KernelSourceDir(), fmt.Sprintf("%s_%s.src", name, t))
}

func (d Dirs) KernelLibraryPath(name, t string) string {
	return filepath.Join(d.CompiledDir(), fmt.Sprintf("%s_%s.so", name, t))
}

// Bootstrap creates the directory skeleton for a fresh database.
func (d Dirs) Bootstrap() error {
	for _, dir := range []string{d.TablesDir(), d.CompiledDir(), d.KernelSourceDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &umbraerr.IoError{Path: dir, Cause: err}
		}
	}
	return nil
}

// schemaFile is the TOML document written to <T>.schema. It is
// self-describing: loading it reconstructs the in-memory schema without
// re-parsing any SQL.
type schemaFile struct {
	Table   string        `toml:"table"`
	Columns []schemaCol   `toml:"columns"`
	Indexes []schemaIndex `toml:"indexes,omitempty"`
}

type schemaCol struct {
	Name       string `toml:"name"`
	Type       string `toml:"type"`
	Length     int    `toml:"length,omitempty"`
	Nullable   bool   `toml:"nullable,omitempty"`
	PrimaryKey bool   `toml:"primary_key,omitempty"`
	Default    string `toml:"default,omitempty"`
	HasDefault bool   `toml:"has_default,omitempty"`
}

type schemaIndex struct {
	Name    string   `toml:"name"`
	Columns []string `toml:"columns"`
	Unique  bool     `toml:"unique,omitempty"`
}

// SaveSchema validates and writes the schema under the table dir.
func SaveSchema(s *Schema, dirs Dirs) error {
	if err := s.Validate(); err != nil {
		return err
	}
	sf := schemaFile{Table: s.Table}
	for _, c := range s.Columns {
		sf.Columns = append(sf.Columns, schemaCol{
			Name:       c.Name,
			Type:       string(c.Type),
			Length:     c.Length,
			Nullable:   c.Nullable,
			PrimaryKey: c.PrimaryKey,
			Default:    c.DefaultText,
			HasDefault: c.HasDefault,
		})
	}
	for _, ix := range s.Indexes {
		sf.Indexes = append(sf.Indexes, schemaIndex{Name: ix.Name, Columns: ix.Columns, Unique: ix.Unique})
	}

	if err := os.MkdirAll(dirs.TableDir(s.Table), 0o755); err != nil {
		return &umbraerr.IoError{Path: dirs.TableDir(s.Table), Cause: err}
	}
	path := dirs.SchemaPath(s.Table)
	f, err := os.Create(path)
	if err != nil {
		return &umbraerr.IoError{Path: path, Cause: err}
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(sf); err != nil {
		_ = f.Close()
		return &umbraerr.IoError{Path: path, Cause: err}
	}
	return f.Close()
}

// LoadSchema reads a schema back from disk.
func LoadSchema(table string, dirs Dirs) (*Schema, error) {
	path := dirs.SchemaPath(table)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &umbraerr.SchemaNotFound{Name: table}
		}
		return nil, &umbraerr.IoError{Path: path, Cause: err}
	}
	defer f.Close()
	return readSchema(f, path)
}

func readSchema(r io.Reader, path string) (*Schema, error) {
	var sf schemaFile
	if _, err := toml.NewDecoder(r).Decode(&sf); err != nil {
		return nil, &umbraerr.IoError{Path: path, Cause: err}
	}
	s := &Schema{Table: sf.Table}
	for _, c := range sf.Columns {
		s.Columns = append(s.Columns, Column{
			Name:        c.Name,
			Type:        DataType(c.Type),
			Length:      c.Length,
			Nullable:    c.Nullable,
			PrimaryKey:  c.PrimaryKey,
			HasDefault:  c.HasDefault,
			DefaultText: c.Default,
		})
	}
	for _, ix := range sf.Indexes {
		s.Indexes = append(s.Indexes, Index{Name: ix.Name, Columns: ix.Columns, Unique: ix.Unique})
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("schema %s is corrupt: %w", path, err)
	}
	return s, nil
}

// TableExists reports whether a schema file is present for the table.
func TableExists(table string, dirs Dirs) bool {
	_, err := os.Stat(dirs.SchemaPath(table))
	return err == nil
}

// ListTables enumerates tables with a schema on disk.
func ListTables(dirs Dirs) ([]string, error) {
	entries, err := os.ReadDir(dirs.TablesDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &umbraerr.IoError{Path: dirs.TablesDir(), Cause: err}
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && TableExists(e.Name(), dirs) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
