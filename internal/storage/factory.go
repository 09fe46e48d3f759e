package storage

import "fmt"

// NewStore builds the run archive backend named by kind. An empty kind
// falls back to DefaultStoreKind for the build. The sqlitePath is only
// consulted by the sqlite backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	if kind == "" {
		kind = DefaultStoreKind()
	}
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want memory or sqlite)", kind)
	}
}

// CloseIfSupported closes backends that hold external resources, such
// as the sqlite archive. The in-memory store has nothing to release.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
