// Package compile shells out to the system C compiler to turn
// generated page and kernel sources into position-independent shared
// objects. The output lands at its final path only via rename, so a
// crash mid-compile never clobbers a live artifact.
package compile

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"umbra/internal/umbraerr"
)

// Compiler invokes one external toolchain binary.
type Compiler struct {
	CC    string
	Flags []string
}

// New returns a compiler around the given binary, or the default "cc"
// with the standard shared-object flags when cc is empty.
func New(cc string, extraFlags []string) *Compiler {
	if cc == "" {
		cc = "cc"
	}
	flags := []string{"-shared", "-fPIC", "-O2"}
	flags = append(flags, extraFlags...)
	return &Compiler{CC: cc, Flags: flags}
}

// Available reports whether the toolchain binary can be found.
func (c *Compiler) Available() bool {
	_, err := exec.LookPath(c.CC)
	return err == nil
}

// Compile builds srcPath into a shared object at outPath. The compiler
// writes to a sibling temp file first and renames over outPath, so
// readers holding the old mapping are never disturbed.
func (c *Compiler) Compile(srcPath, outPath string) error {
	tmp := outPath + ".tmp"
	args := append([]string{}, c.Flags...)
	// Generated sources carry a .src extension; force the C front end.
	args = append(args, "-x", "c", srcPath, "-o", tmp)

	log.Debug("invoking compiler", "cc", c.CC, "src", srcPath, "out", outPath)
	cmd := exec.Command(c.CC, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(tmp)
		out := strings.TrimSpace(stderr.String())
		if out == "" {
			out = err.Error()
		}
		return &umbraerr.CompileFailed{Path: srcPath, Output: out}
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return &umbraerr.IoError{Path: outPath, Cause: err}
	}
	return nil
}

// CompileSource writes source text to srcPath and compiles it.
func (c *Compiler) CompileSource(source, srcPath, outPath string) error {
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return &umbraerr.IoError{Path: srcPath, Cause: err}
	}
	return c.Compile(srcPath, outPath)
}

func (c *Compiler) String() string {
	return fmt.Sprintf("%s %s", c.CC, strings.Join(c.Flags, " "))
}
