package socketwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherDetectsRemoveAndCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.sock")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	w, err := New(path, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.Remove(path))
	select {
	case <-w.Removed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removed event")
	}

	require.NoError(t, os.WriteFile(path, []byte("y"), 0o600))
	select {
	case <-w.Created:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for created event")
	}
}
