package sqlite

import (
	"context"
	"testing"

	"github.com/dyntab/dyntab/internal/storage"
)

// NewTestEngine creates a bootstrapped storage.Engine backed by a
// private temp-file database, for package-level tests in internal/
// packages above this one. Test isolation pattern follows the
// teacher's: a fresh file per test (t.TempDir()) is more reliable
// across the connection pool than a shared in-memory database.
func NewTestEngine(t *testing.T) (*storage.Engine, context.Context) {
	t.Helper()

	ctx := context.Background()
	path := t.TempDir() + "/test.db"

	engine, err := storage.Open(ctx, path)
	if err != nil {
		t.Fatalf("storage.Open(%q): %v", path, err)
	}
	t.Cleanup(func() {
		if err := engine.Close(); err != nil {
			t.Fatalf("engine.Close(): %v", err)
		}
	})

	if err := Bootstrap(ctx, engine); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	return engine, ctx
}
