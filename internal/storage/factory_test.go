package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStoreEmptyKindUsesBuildDefault(t *testing.T) {
	store, err := NewStore("", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, CloseIfSupported(store))
}

func TestNewStoreMemoryBackend(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)
}

func TestNewStoreRejectsUnknownBackend(t *testing.T) {
	_, err := NewStore("postgres", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "postgres")
}

func TestCloseIfSupportedOnMemoryStore(t *testing.T) {
	require.NoError(t, CloseIfSupported(NewMemoryStore()))
}
