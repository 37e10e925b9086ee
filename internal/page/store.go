// Package page manages a table's compiled record pages: loading them
// for scans, reading records back for mutation, and regenerating +
// recompiling a page image when its contents change. Page replacement
// is rename-based, so handles opened before a swap stay valid until
// released.
package page

import (
	"os"
	"unsafe"

	"github.com/charmbracelet/log"

	"umbra/internal/catalog"
	"umbra/internal/codegen"
	"umbra/internal/compile"
	"umbra/internal/loader"
	"umbra/internal/umbraerr"
)

// DefaultPageSize is the record capacity of one page.
const DefaultPageSize = 65535

// Store is the page manager for one database directory.
type Store struct {
	Dirs     catalog.Dirs
	Compiler *compile.Compiler
	Loader   *loader.Loader
}

// NewStore wires a store over the shared compiler and loader.
func NewStore(dirs catalog.Dirs, c *compile.Compiler, ld *loader.Loader) *Store {
	return &Store{Dirs: dirs, Compiler: c, Loader: ld}
}

// Handle is one loaded page library with its entry points resolved.
type Handle struct {
	lib     *loader.Library
	readFn  uintptr
	count   int
	recSize int
}

// Load opens page pageID of a table and verifies its ABI against the
// schema. The caller must Close the handle when the scan is done.
func (s *Store) Load(schema *catalog.Schema, pageID int) (*Handle, error) {
	path := s.Dirs.PageLibraryPath(schema.Table, pageID)
	lib, err := s.Loader.Open(path)
	if err != nil {
		return nil, err
	}
	if err := lib.CheckABI(schema.Hash()); err != nil {
		lib.Close()
		return nil, err
	}
	countFn, err := lib.Symbol("count")
	if err != nil {
		lib.Close()
		return nil, err
	}
	readFn, err := lib.Symbol("read")
	if err != nil {
		lib.Close()
		return nil, err
	}
	h := &Handle{
		lib:     lib,
		readFn:  readFn,
		count:   int(int32(lib.Call(countFn))),
		recSize: catalog.RecordSize(schema),
	}
	return h, nil
}

// Count returns the number of records on the page.
func (h *Handle) Count() int { return h.count }

// Record returns the address of record pos, or 0 past the end.
func (h *Handle) Record(pos int) uintptr {
	return h.lib.Call(h.readFn, uintptr(pos))
}

// Base returns the address of record 0, or 0 for an empty page. The
// records behind it are contiguous with stride RecordSize(schema).
func (h *Handle) Base() uintptr {
	if h.count == 0 {
		return 0
	}
	return h.Record(0)
}

// RecordBytes copies record pos out of the mapped page.
func (h *Handle) RecordBytes(pos int) ([]byte, error) {
	ptr := h.Record(pos)
	if ptr == 0 {
		return nil, &umbraerr.Internal{Msg: "record read past page end"}
	}
	out := make([]byte, h.recSize)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), h.recSize))
	return out, nil
}

// Close releases the page mapping reference.
func (h *Handle) Close() { h.lib.Close() }

// ReadAll decodes every record of a page into values. The mutation
// engine works on this in-memory image.
func (s *Store) ReadAll(schema *catalog.Schema, pageID int) ([][]catalog.Value, error) {
	h, err := s.Load(schema, pageID)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	out := make([][]catalog.Value, 0, h.Count())
	for pos := 0; pos < h.Count(); pos++ {
		raw, err := h.RecordBytes(pos)
		if err != nil {
			return nil, err
		}
		row, err := catalog.DecodeRecord(schema, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Regenerate writes fresh page source for the given records, compiles
// it, and swaps the library into place. Open handles keep their old
// mapping; the next Load sees the new one.
func (s *Store) Regenerate(schema *catalog.Schema, pageID int, records [][]catalog.Value) error {
	source, err := codegen.PageSource(schema, records)
	if err != nil {
		return err
	}
	srcDir := s.Dirs.PageSourceDir(schema.Table)
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return &umbraerr.IoError{Path: srcDir, Cause: err}
	}
	srcPath := s.Dirs.PageSourcePath(schema.Table, pageID)
	libPath := s.Dirs.PageLibraryPath(schema.Table, pageID)
	if err := s.Compiler.CompileSource(source, srcPath, libPath); err != nil {
		return err
	}
	s.Loader.Invalidate(libPath)
	log.Debug("page regenerated", "table", schema.Table, "page", pageID, "records", len(records))
	return nil
}

// Exists reports whether a compiled library is present for the page.
func (s *Store) Exists(table string, pageID int) bool {
	_, err := os.Stat(s.Dirs.PageLibraryPath(table, pageID))
	return err == nil
}

// FindBestPageForInsert picks the last page while it still has room for
// requestedCapacity more records, else the next fresh page id.
func FindBestPageForInsert(meta catalog.TableMetadata, lastPageCount, requestedCapacity int) int {
	if meta.PageCount == 0 {
		return 0
	}
	last := int(meta.PageCount) - 1
	if lastPageCount+requestedCapacity <= int(meta.PageSize) {
		return last
	}
	return last + 1
}
