// Package testutil provides helpers for building temporary source and
// destination trees in tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEnv holds a temporary source root and destination root.
type TestEnv struct {
	SourceRoot string
	DestRoot   string
}

// NewTestEnv creates source and destination directories under a
// per-test temp dir.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	tmp := t.TempDir()
	env := &TestEnv{
		SourceRoot: filepath.Join(tmp, "root"),
		DestRoot:   filepath.Join(tmp, "home"),
	}
	require.NoError(t, os.MkdirAll(env.SourceRoot, 0755))
	require.NoError(t, os.MkdirAll(env.DestRoot, 0755))
	return env
}

// WriteSource creates a file under the source root, creating parent
// directories as needed. relPath uses forward slashes.
func (e *TestEnv) WriteSource(t *testing.T, relPath, content string) string {
	t.Helper()
	return writeFile(t, e.SourceRoot, relPath, content)
}

// WriteDest creates a file under the destination root.
func (e *TestEnv) WriteDest(t *testing.T, relPath, content string) string {
	t.Helper()
	return writeFile(t, e.DestRoot, relPath, content)
}

// SourcePath returns the absolute path of relPath under the source
// root.
func (e *TestEnv) SourcePath(relPath string) string {
	return filepath.Join(e.SourceRoot, filepath.FromSlash(relPath))
}

// DestPath returns the absolute path of relPath under the destination
// root.
func (e *TestEnv) DestPath(relPath string) string {
	return filepath.Join(e.DestRoot, filepath.FromSlash(relPath))
}

// SymlinkDest creates a symlink at relPath under the destination root
// pointing at target.
func (e *TestEnv) SymlinkDest(t *testing.T, relPath, target string) {
	t.Helper()
	link := e.DestPath(relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0755))
	require.NoError(t, os.Symlink(target, link))
}

// AssertSymlink fails the test unless path is a symlink pointing at
// target.
func AssertSymlink(t *testing.T, path, target string) {
	t.Helper()
	info, err := os.Lstat(path)
	require.NoError(t, err, "expected symlink at %s", path)
	require.NotZero(t, info.Mode()&os.ModeSymlink, "%s is not a symlink", path)
	actual, err := os.Readlink(path)
	require.NoError(t, err)
	require.Equal(t, target, actual)
}

// AssertRegularFile fails the test unless path is a regular file with
// the given content. Symlinks do not qualify.
func AssertRegularFile(t *testing.T, path, content string) {
	t.Helper()
	info, err := os.Lstat(path)
	require.NoError(t, err, "expected file at %s", path)
	require.True(t, info.Mode().IsRegular(), "%s is not a regular file", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, string(data))
}

// AssertAbsent fails the test if anything exists at path.
func AssertAbsent(t *testing.T, path string) {
	t.Helper()
	_, err := os.Lstat(path)
	require.True(t, os.IsNotExist(err), "expected nothing at %s", path)
}

func writeFile(t *testing.T, root, relPath, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
