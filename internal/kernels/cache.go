// Package kernels caches compiled query kernels by fingerprint. Each
// fingerprint is built at most once per process; the cache is bounded
// LRU and closing an evicted entry drops its library mapping.
package kernels

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"umbra/internal/catalog"
	"umbra/internal/compile"
	"umbra/internal/loader"
)

// DefaultCapacity bounds the cache when the config does not.
const DefaultCapacity = 128

// Kernel is a loaded, ready-to-invoke query kernel.
type Kernel struct {
	Fingerprint string
	Symbol      string
	Library     *loader.Library
	Entry       uintptr
}

// Cache maps fingerprints to loaded kernels.
type Cache struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, *Kernel]
	compiler *compile.Compiler
	loader   *loader.Loader
	dirs     catalog.Dirs
}

// NewCache builds a cache of the given capacity (DefaultCapacity when
// size <= 0).
func NewCache(size int, compiler *compile.Compiler, ld *loader.Loader, dirs catalog.Dirs) (*Cache, error) {
	if size <= 0 {
		size = DefaultCapacity
	}
	entries, err := lru.NewWithEvict(size, func(fp string, k *Kernel) {
		log.Debug("evicting kernel", "fingerprint", fp)
		k.Library.Close()
	})
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, compiler: compiler, loader: ld, dirs: dirs}, nil
}

// GetOrBuild returns the kernel for a fingerprint, building and loading
// it if this process has not seen the fingerprint yet. A compiled
// artifact surviving from an earlier process run is reused when its
// abi_version still matches; otherwise it is rebuilt in place.
func (c *Cache) GetOrBuild(fp, symbol, table string, schemaHash uint32, source string) (*Kernel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if k, ok := c.entries.Get(fp); ok {
		return k, nil
	}

	srcPath := c.dirs.KernelSourcePath(symbol, table)
	libPath := c.dirs.KernelLibraryPath(symbol, table)

	if _, err := os.Stat(libPath); err == nil {
		if lib, err := c.loader.Open(libPath); err == nil {
			if lib.CheckABI(schemaHash) == nil {
				if k, err := c.bind(fp, symbol, lib); err == nil {
					return k, nil
				}
			}
			lib.Close()
			c.loader.Invalidate(libPath)
		}
	}

	if err := c.compiler.CompileSource(source, srcPath, libPath); err != nil {
		return nil, err
	}
	c.loader.Invalidate(libPath)

	lib, err := c.loader.Open(libPath)
	if err != nil {
		return nil, err
	}
	if err := lib.CheckABI(schemaHash); err != nil {
		lib.Close()
		return nil, err
	}
	k, err := c.bind(fp, symbol, lib)
	if err != nil {
		lib.Close()
		return nil, err
	}
	return k, nil
}

func (c *Cache) bind(fp, symbol string, lib *loader.Library) (*Kernel, error) {
	entry, err := lib.Symbol(symbol)
	if err != nil {
		return nil, err
	}
	k := &Kernel{Fingerprint: fp, Symbol: symbol, Library: lib, Entry: entry}
	c.entries.Add(fp, k)
	log.Debug("kernel cached", "fingerprint", fp, "symbol", symbol)
	return k, nil
}

// Rebuild drops a cached fingerprint so the next GetOrBuild compiles
// fresh source. Used when a referenced schema changes.
func (c *Cache) Rebuild(fp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(fp)
}

// Len reports how many kernels are resident.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Close drops every cached kernel.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}
