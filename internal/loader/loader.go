// Package loader wraps dlopen/dlsym (via purego, no cgo) behind
// refcounted library handles. A library stays mapped while any query
// holds a reference; replacing the file on disk only affects the next
// Open. Function pointers resolved from a handle must not outlive it.
package loader

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"umbra/internal/umbraerr"
)

// Library is one mapped shared object.
type Library struct {
	loader *Loader
	path   string
	handle uintptr
	refs   int
	closed bool
}

// Loader opens libraries and shares mappings per path until they are
// invalidated or fully released.
type Loader struct {
	mu   sync.Mutex
	open map[string]*Library
}

// New returns an empty loader.
func New() *Loader {
	return &Loader{open: make(map[string]*Library)}
}

// Open maps the shared object at path, or hands out another reference
// to an existing mapping of the same path.
func (ld *Loader) Open(path string) (*Library, error) {
	ld.mu.Lock()
	defer ld.mu.Unlock()

	if lib, ok := ld.open[path]; ok {
		lib.refs++
		return lib, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &umbraerr.LoadFailed{Path: path, Reason: "file not found"}
		}
		return nil, &umbraerr.IoError{Path: path, Cause: err}
	}
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, &umbraerr.LoadFailed{Path: path, Reason: err.Error()}
	}
	lib := &Library{loader: ld, path: path, handle: handle, refs: 1}
	ld.open[path] = lib
	return lib, nil
}

// Invalidate detaches the cached mapping for a path so the next Open
// maps the file currently on disk. Existing references stay valid.
func (ld *Loader) Invalidate(path string) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	delete(ld.open, path)
}

// Path returns the file this library was mapped from.
func (l *Library) Path() string { return l.path }

// Symbol resolves an exported symbol to its address.
func (l *Library) Symbol(name string) (uintptr, error) {
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil || addr == 0 {
		reason := "symbol " + name + " not found"
		if err != nil {
			reason = err.Error()
		}
		return 0, &umbraerr.LoadFailed{Path: l.path, Reason: reason}
	}
	return addr, nil
}

// ABIVersion reads the exported abi_version constant.
func (l *Library) ABIVersion() (uint32, error) {
	addr, err := l.Symbol("abi_version")
	if err != nil {
		return 0, err
	}
	return *(*uint32)(unsafe.Pointer(addr)), nil
}

// CheckABI verifies the artifact was built against the expected schema
// hash. A mismatch is fatal for the query using this library.
func (l *Library) CheckABI(expected uint32) error {
	found, err := l.ABIVersion()
	if err != nil {
		return err
	}
	if found != expected {
		return &umbraerr.AbiMismatch{Path: l.path, Expected: expected, Found: found}
	}
	return nil
}

// Call invokes a resolved function with integer/pointer arguments and
// returns the raw first return register.
func (l *Library) Call(addr uintptr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(addr, args...)
	return r1
}

// Close releases one reference. The mapping is unloaded once the last
// reference is gone; if it is still the cached mapping for its path,
// that cache entry is dropped as well.
func (l *Library) Close() {
	ld := l.loader
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if l.closed {
		return
	}
	l.refs--
	if l.refs > 0 {
		return
	}
	l.closed = true
	if ld.open[l.path] == l {
		delete(ld.open, l.path)
	}
	_ = purego.Dlclose(l.handle)
}
