package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 65535, cfg.Engine.PageSize)
	assert.Equal(t, 10000, cfg.Engine.MaxResults)
	assert.Equal(t, 128, cfg.Engine.KernelCacheSize)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[engine]
page_size = 2
max_results = 50
tolerate_page_loss = true
creator = "tester"

[compiler]
cc = "clang"
flags = ["-g"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "umbra.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Engine.PageSize)
	assert.Equal(t, 50, cfg.Engine.MaxResults)
	assert.True(t, cfg.Engine.ToleratePageLoss)
	assert.Equal(t, "tester", cfg.Engine.Creator)
	assert.Equal(t, "clang", cfg.Compiler.CC)
	assert.Equal(t, []string{"-g"}, cfg.Compiler.Flags)
	// Unset values keep their defaults.
	assert.Equal(t, 128, cfg.Engine.KernelCacheSize)
}

func TestLoadRejectsBadToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "umbra.toml"), []byte("[engine\n"), 0o644))
	_, err := Load(dir)
	require.Error(t, err)
}
