// Package engine is the embeddable facade: it owns the catalog, the
// compiler, the loader, the kernel cache, the executor and the
// mutation engine for one database directory, and turns SQL text into
// result sets.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"umbra/internal/catalog"
	"umbra/internal/compile"
	"umbra/internal/config"
	"umbra/internal/exec"
	"umbra/internal/kernels"
	"umbra/internal/loader"
	"umbra/internal/mutate"
	"umbra/internal/page"
	"umbra/internal/sql"
	"umbra/internal/umbraerr"
)

// Engine is one open database. It is single-user: one statement runs
// at a time.
type Engine struct {
	Dirs     catalog.Dirs
	Config   config.Config
	loader   *loader.Loader
	compiler *compile.Compiler
	store    *page.Store
	kernels  *kernels.Cache
	executor *exec.Executor
	mutator  *mutate.Engine
}

// Open loads the configuration under baseDir, bootstraps the directory
// skeleton, and wires the component stack.
func Open(baseDir string) (*Engine, error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, err
	}
	return OpenWith(baseDir, cfg)
}

// OpenWith opens a database with an explicit configuration.
func OpenWith(baseDir string, cfg config.Config) (*Engine, error) {
	dirs := catalog.Dirs{Base: baseDir}
	if err := dirs.Bootstrap(); err != nil {
		return nil, err
	}

	ld := loader.New()
	cc := compile.New(cfg.Compiler.CC, cfg.Compiler.Flags)
	store := page.NewStore(dirs, cc, ld)
	cache, err := kernels.NewCache(cfg.Engine.KernelCacheSize, cc, ld, dirs)
	if err != nil {
		return nil, &umbraerr.Internal{Msg: "kernel cache: " + err.Error()}
	}
	executor := &exec.Executor{
		Store:            store,
		Kernels:          cache,
		MaxResults:       cfg.Engine.MaxResults,
		ToleratePageLoss: cfg.Engine.ToleratePageLoss,
	}
	e := &Engine{
		Dirs:     dirs,
		Config:   cfg,
		loader:   ld,
		compiler: cc,
		store:    store,
		kernels:  cache,
		executor: executor,
		mutator:  &mutate.Engine{Store: store, Exec: executor, Dirs: dirs},
	}
	return e, nil
}

// Close releases cached kernels. Page mappings held by finished
// statements are already released.
func (e *Engine) Close() {
	e.kernels.Close()
}

// SetToleratePageLoss toggles skip-with-warning behavior for pages
// that fail to load mid-query.
func (e *Engine) SetToleratePageLoss(tolerate bool) {
	e.Config.Engine.ToleratePageLoss = tolerate
	e.executor.ToleratePageLoss = tolerate
}

// CompilerAvailable reports whether the external C toolchain is
// reachable; queries and mutations need it, CREATE TABLE does not.
func (e *Engine) CompilerAvailable() bool {
	return e.compiler.Available()
}

// Execute parses and runs a single SQL statement.
func (e *Engine) Execute(text string) (*exec.ResultSet, error) {
	stmt, err := sql.Parse(text)
	if err != nil {
		return nil, err
	}
	return e.ExecuteStmt(stmt)
}

// ExecuteStmt runs an already-parsed statement.
func (e *Engine) ExecuteStmt(stmt sql.Statement) (*exec.ResultSet, error) {
	start := time.Now()
	rs, err := e.dispatch(stmt)
	if err != nil {
		return nil, err
	}
	rs.Elapsed = time.Since(start)
	return rs, nil
}

func (e *Engine) dispatch(stmt sql.Statement) (*exec.ResultSet, error) {
	switch s := stmt.(type) {
	case *sql.SelectStmt:
		schema, meta, err := e.tableState(s.Table)
		if err != nil {
			return nil, err
		}
		if err := sql.ValidateSelect(s, schema); err != nil {
			return nil, err
		}
		return e.executor.Select(s, schema, meta)

	case *sql.InsertStmt:
		schema, meta, err := e.tableState(s.Table)
		if err != nil {
			return nil, err
		}
		return e.mutator.Insert(s, schema, &meta)

	case *sql.UpdateStmt:
		schema, meta, err := e.tableState(s.Table)
		if err != nil {
			return nil, err
		}
		return e.mutator.Update(s, schema, &meta)

	case *sql.DeleteStmt:
		schema, meta, err := e.tableState(s.Table)
		if err != nil {
			return nil, err
		}
		return e.mutator.Delete(s, schema, &meta)

	case *sql.CreateTableStmt:
		return e.createTable(s)

	case *sql.CreateIndexStmt:
		return e.createIndex(s)
	}
	return nil, &umbraerr.Internal{Msg: fmt.Sprintf("unhandled statement %T", stmt)}
}

func (e *Engine) tableState(table string) (*catalog.Schema, catalog.TableMetadata, error) {
	schema, err := catalog.LoadSchema(table, e.Dirs)
	if err != nil {
		return nil, catalog.TableMetadata{}, err
	}
	meta, err := catalog.LoadMetadata(table, e.Dirs)
	if err != nil {
		return nil, catalog.TableMetadata{}, err
	}
	if meta.PageSize == 0 {
		meta.PageSize = int32(e.Config.Engine.PageSize)
	}
	return schema, meta, nil
}

// createTable converts the parsed column definitions into a schema,
// prepending the engine-managed uuid column when the statement did not
// declare one.
func (e *Engine) createTable(stmt *sql.CreateTableStmt) (*exec.ResultSet, error) {
	if catalog.TableExists(stmt.Table, e.Dirs) {
		return nil, &umbraerr.DuplicateTable{Name: stmt.Table}
	}

	schema := &catalog.Schema{Table: stmt.Table}
	hasUUID := false
	for _, def := range stmt.Columns {
		if strings.EqualFold(def.Name, "uuid") {
			hasUUID = true
		}
	}
	if !hasUUID {
		schema.Columns = append(schema.Columns, catalog.UUIDColumn())
	}

	for _, def := range stmt.Columns {
		t, ok := catalog.ParseDataType(def.TypeName)
		if !ok {
			return nil, &umbraerr.SemanticError{Msg: fmt.Sprintf("unknown type %q for column %q", def.TypeName, def.Name)}
		}
		col := catalog.Column{
			Name:        def.Name,
			Type:        t,
			Length:      def.Length,
			Nullable:    !def.NotNull && !def.PrimaryKey,
			PrimaryKey:  def.PrimaryKey,
			HasDefault:  def.HasDefault,
			DefaultText: def.DefaultText,
		}
		if t == catalog.TypeVarchar && col.Length == 0 {
			return nil, &umbraerr.SemanticError{Msg: fmt.Sprintf("VARCHAR column %q needs a length", def.Name)}
		}
		if strings.EqualFold(def.Name, "uuid") {
			if t != catalog.TypeVarchar || col.Length != catalog.UUIDLength {
				return nil, &umbraerr.SemanticError{Msg: "uuid column must be VARCHAR(36)"}
			}
			col.PrimaryKey = true
			col.Nullable = false
		}
		schema.Columns = append(schema.Columns, col)
	}

	// uuid must sit at index 0; a declared uuid column is moved there.
	if hasUUID {
		idx := schema.FindColumn("uuid")
		if idx > 0 {
			u := schema.Columns[idx]
			schema.Columns = append(schema.Columns[:idx], schema.Columns[idx+1:]...)
			schema.Columns = append([]catalog.Column{u}, schema.Columns...)
		}
	}

	if err := catalog.SaveSchema(schema, e.Dirs); err != nil {
		return nil, err
	}
	meta := catalog.NewTableMetadata(stmt.Table, e.Config.Engine.Creator, e.Config.Engine.PageSize)
	if err := catalog.SaveMetadata(meta, e.Dirs); err != nil {
		return nil, err
	}
	log.Info("table created", "table", stmt.Table, "columns", len(schema.Columns))
	return &exec.ResultSet{}, nil
}

// createIndex records the index in the catalog. Query planning never
// consults it in this version.
func (e *Engine) createIndex(stmt *sql.CreateIndexStmt) (*exec.ResultSet, error) {
	schema, err := catalog.LoadSchema(stmt.Table, e.Dirs)
	if err != nil {
		return nil, err
	}
	if schema.FindIndex(stmt.Name) != nil {
		return nil, &umbraerr.SemanticError{Msg: fmt.Sprintf("index %q already exists", stmt.Name)}
	}
	for _, col := range stmt.Columns {
		if schema.FindColumn(col) < 0 {
			return nil, &umbraerr.ColumnNotFound{Name: col}
		}
	}
	schema.Indexes = append(schema.Indexes, catalog.Index{Name: stmt.Name, Columns: stmt.Columns, Unique: stmt.Unique})
	if err := catalog.SaveSchema(schema, e.Dirs); err != nil {
		return nil, err
	}
	log.Info("index recorded", "index", stmt.Name, "table", stmt.Table)
	return &exec.ResultSet{}, nil
}

// Tables lists the tables present in the catalog.
func (e *Engine) Tables() ([]string, error) {
	return catalog.ListTables(e.Dirs)
}
