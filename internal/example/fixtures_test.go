package example

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextual-mocker/ctxmock/pkg/ctxmock"
)

func writeFixtureFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadFixtureSet(t *testing.T) {
	path := writeFixtureFile(t, `
fixtures:
  - context: tenant-a
    method: Get
    args: ["id-1"]
    returns: ["value-1"]
  - context: tenant-b
    method: Get
    args: ["id-1"]
    returns: ["value-2"]
`)

	set, err := LoadFixtureSet(path)
	require.NoError(t, err)
	require.Len(t, set.Fixtures, 2)
	assert.Equal(t, "tenant-a", set.Fixtures[0].Context)
	assert.Equal(t, "Get", set.Fixtures[0].Method)
}

func TestFixtureSet_ApplyTo(t *testing.T) {
	path := writeFixtureFile(t, `
fixtures:
  - context: tenant-a
    method: Get
    args: ["id-1"]
    returns: ["value-1"]
  - context: tenant-b
    method: Get
    args: ["id-1"]
    returns: ["value-2"]
`)

	set, err := LoadFixtureSet(path)
	require.NoError(t, err)

	mock := NewMockEmailService()
	set.ApplyTo(mock)

	ctxmock.SetContext(ctxmock.StringContext("tenant-a"))
	assert.Equal(t, "value-1", mock.Get("id-1"))

	ctxmock.SetContext(ctxmock.StringContext("tenant-b"))
	assert.Equal(t, "value-2", mock.Get("id-1"))
	ctxmock.ClearContext()
}

func TestLoadFixtureSet_MissingFile(t *testing.T) {
	_, err := LoadFixtureSet(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
