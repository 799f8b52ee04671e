package engine_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyntab/dyntab/internal/engine"
	"github.com/dyntab/dyntab/internal/types"
)

func openTestEngine(t *testing.T) (*engine.Engine, context.Context) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	e, err := engine.Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e, ctx
}

func TestExecuteCreateTablePublishesNotification(t *testing.T) {
	e, ctx := openTestEngine(t)

	ch, unsubscribe := e.Notifications().Subscribe()
	defer unsubscribe()

	result, err := e.Execute(ctx, types.Action{Kind: types.ActionCreateTable, TableName: "Widgets"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TableID == 0 {
		t.Fatalf("expected nonzero table id")
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a table-list-changed notification")
	}

	tables, err := e.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 1 || tables[0].Name != "Widgets" {
		t.Fatalf("ListTables = %+v", tables)
	}
}

func TestUndoRedoThroughEngine(t *testing.T) {
	e, ctx := openTestEngine(t)

	if _, err := e.Execute(ctx, types.Action{Kind: types.ActionCreateTable, TableName: "Widgets"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := e.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	tables, err := e.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 0 {
		t.Fatalf("expected no tables after undo, got %+v", tables)
	}

	if err := e.Redo(ctx); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	tables, err = e.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected table restored after redo, got %+v", tables)
	}
}
