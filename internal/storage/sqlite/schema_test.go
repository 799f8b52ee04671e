package sqlite

import (
	"database/sql"
	"testing"

	"github.com/dyntab/dyntab/internal/storage"
)

func TestBootstrapSeedsPrimitivesAndIsIdempotent(t *testing.T) {
	engine, ctx := NewTestEngine(t)

	var count int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return tx.QueryRow(func(r *sql.Row) error { return r.Scan(&count) },
			"SELECT COUNT(*) FROM MTYPE WHERE mode = 0")
	})
	if err != nil {
		t.Fatalf("count primitive types: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected 10 seeded primitives, got %d", count)
	}

	if err := Bootstrap(ctx, engine); err != nil {
		t.Fatalf("second Bootstrap call must be idempotent: %v", err)
	}

	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return tx.QueryRow(func(r *sql.Row) error { return r.Scan(&count) },
			"SELECT COUNT(*) FROM MTYPE WHERE mode = 0")
	})
	if err != nil {
		t.Fatalf("count primitive types after re-bootstrap: %v", err)
	}
	if count != 10 {
		t.Fatalf("re-bootstrap duplicated seed rows: got %d", count)
	}
}

func TestNextIDAllocatesMonotonically(t *testing.T) {
	engine, ctx := NewTestEngine(t)

	var first, second int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		first, err = NextID(tx, "type")
		if err != nil {
			return err
		}
		second, err = NextID(tx, "type")
		return err
	})
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if first != 10 {
		t.Fatalf("expected first allocated type id to be 10 (after seeded 0-9), got %d", first)
	}
	if second != first+1 {
		t.Fatalf("expected monotonic allocation, got %d then %d", first, second)
	}
}

func TestNamingHelpers(t *testing.T) {
	if got, want := TableName(42), "TABLE_42"; got != want {
		t.Errorf("TableName(42) = %q, want %q", got, want)
	}
	if got, want := SurrogateName(42), "TABLE_42_SURROGATE"; got != want {
		t.Errorf("SurrogateName(42) = %q, want %q", got, want)
	}
	if got, want := StagingRelationName(7), "TRANS_COLUMN_7"; got != want {
		t.Errorf("StagingRelationName(7) = %q, want %q", got, want)
	}
}
