package diagnostics

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "setdeck.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("not a real database"), 0o600))

	r := Collect(dbPath)

	assert.Equal(t, runtime.Version(), r.GoVersion)
	assert.Equal(t, runtime.GOOS, r.OS)
	assert.Equal(t, dbPath, r.DatabasePath)
	assert.Equal(t, int64(19), r.DatabaseBytes)
}

func TestCollectMissingDatabase(t *testing.T) {
	r := Collect(filepath.Join(t.TempDir(), "missing.db"))
	assert.Zero(t, r.DatabaseBytes)
}
