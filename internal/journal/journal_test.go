package journal_test

import (
	"testing"

	"github.com/dyntab/dyntab/internal/data"
	"github.com/dyntab/dyntab/internal/journal"
	"github.com/dyntab/dyntab/internal/schema"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

func TestExecuteUndoRedoCreateTable(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)
	j := journal.New()

	var tableID int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		res, err := j.Execute(tx, types.Action{Kind: types.ActionCreateTable, TableName: "Widgets"})
		tableID = res.TableID
		return err
	})
	if err != nil {
		t.Fatalf("execute create: %v", err)
	}

	assertListed := func(want bool) {
		t.Helper()
		err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
			list, err := schema.GetTableList(tx)
			if err != nil {
				return err
			}
			found := false
			for _, item := range list {
				if item.OID == tableID {
					found = true
				}
			}
			if found == want {
				return nil
			}
			t.Errorf("expected table listed=%v, got listed=%v", want, found)
			return nil
		})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
	}

	assertListed(true)

	if !j.CanUndo() {
		t.Fatalf("expected CanUndo after Execute")
	}
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return j.Undo(tx)
	})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	assertListed(false)

	if !j.CanRedo() {
		t.Fatalf("expected CanRedo after Undo")
	}
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return j.Redo(tx)
	})
	if err != nil {
		t.Fatalf("redo: %v", err)
	}
	assertListed(true)
}

func TestUndoOnEmptyStackFails(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)
	j := journal.New()

	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return j.Undo(tx)
	})
	if err == nil {
		t.Fatalf("expected error undoing with an empty reverse stack")
	}
}

func TestUpdateCellUndoRestoresPriorValue(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)
	j := journal.New()

	var tableID, columnID, rowID int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		tableID, err = schema.CreateTable(tx, "People")
		if err != nil {
			return err
		}
		columnID, err = schema.CreateColumn(tx, tableID, types.ColumnSpec{
			Name: "Name", TypeOID: int64(types.PrimitiveText), Mode: 0, Nullable: true,
		})
		if err != nil {
			return err
		}
		res, err := j.Execute(tx, types.Action{Kind: types.ActionPushTableRow, TableID: tableID})
		rowID = res.RowID
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	ada := "Ada"
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		_, err := j.Execute(tx, types.Action{
			Kind: types.ActionUpdateTableCellStoredAsPrimitiveValue,
			TableID: tableID, RowID: rowID, ColumnID: columnID, Value: &ada,
		})
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return j.Undo(tx)
	})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}

	var current *string
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		current, err = data.TryUpdatePrimitive(tx, tableID, rowID, columnID, nil)
		return err
	})
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if current != nil {
		t.Errorf("expected cell cleared back to NULL after undo, got %v", *current)
	}
}
