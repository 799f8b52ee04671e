package data_test

import (
	"context"
	"testing"

	"github.com/dyntab/dyntab/internal/data"
	"github.com/dyntab/dyntab/internal/schema"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

func setupPeopleTable(t *testing.T) (*storage.Engine, context.Context, int64, int64) {
	t.Helper()
	engine, ctx := sqlite.NewTestEngine(t)

	var tableID, nameCol int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		tableID, err = schema.CreateTable(tx, "People")
		if err != nil {
			return err
		}
		nameCol, err = schema.CreateColumn(tx, tableID, types.ColumnSpec{
			Name: "Name", TypeOID: int64(types.PrimitiveText), Mode: 0, Nullable: true,
		})
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return engine, ctx, tableID, nameCol
}

func TestPushAndInsertRowRenumbers(t *testing.T) {
	engine, ctx, tableID, _ := setupPeopleTable(t)

	var first, second, inserted int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		first, err = data.PushRow(tx, tableID)
		if err != nil {
			return err
		}
		second, err = data.PushRow(tx, tableID)
		if err != nil {
			return err
		}
		inserted, err = data.InsertRow(tx, tableID, second)
		return err
	})
	if err != nil {
		t.Fatalf("push/insert: %v", err)
	}
	if inserted != second {
		t.Fatalf("expected inserted row to take the target id %d, got %d", second, inserted)
	}

	var shiftedExists, firstExists bool
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		shiftedExists, err = data.RowExists(tx, tableID, second+1)
		if err != nil {
			return err
		}
		firstExists, err = data.RowExists(tx, tableID, first)
		return err
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !shiftedExists {
		t.Errorf("expected the original second row to have shifted to oid %d", second+1)
	}
	if !firstExists {
		t.Errorf("expected the untouched first row %d to still exist", first)
	}
}

func TestTryUpdatePrimitiveRoundTrip(t *testing.T) {
	engine, ctx, tableID, nameCol := setupPeopleTable(t)

	var rowID int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		rowID, err = data.PushRow(tx, tableID)
		return err
	})
	if err != nil {
		t.Fatalf("push: %v", err)
	}

	value := "Ada"
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		prior, err := data.TryUpdatePrimitive(tx, tableID, rowID, nameCol, &value)
		if err != nil {
			return err
		}
		if prior != nil {
			t.Errorf("expected nil prior value on first write, got %q", *prior)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	replacement := "Grace"
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		prior, err := data.TryUpdatePrimitive(tx, tableID, rowID, nameCol, &replacement)
		if err != nil {
			return err
		}
		if prior == nil || *prior != "Ada" {
			t.Errorf("expected prior value %q, got %v", "Ada", prior)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update2: %v", err)
	}
}

func TestSendTableDataEmitsRows(t *testing.T) {
	engine, ctx, tableID, nameCol := setupPeopleTable(t)

	var rowID int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		rowID, err = data.PushRow(tx, tableID)
		if err != nil {
			return err
		}
		value := "Ada"
		_, err = data.TryUpdatePrimitive(tx, tableID, rowID, nameCol, &value)
		return err
	})
	if err != nil {
		t.Fatalf("setup row: %v", err)
	}

	var rowStarts, cellValues int
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return data.SendTableData(tx, tableID, func(ev types.CellEvent) error {
			if ev.RowStart != nil {
				rowStarts++
			}
			if ev.ColumnValue != nil {
				cellValues++
				if ev.ColumnValue.ColumnOID == nameCol {
					if ev.ColumnValue.DisplayValue == nil || *ev.ColumnValue.DisplayValue != "Ada" {
						t.Errorf("expected display value Ada, got %v", ev.ColumnValue.DisplayValue)
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("SendTableData: %v", err)
	}
	if rowStarts != 1 {
		t.Errorf("expected 1 row start, got %d", rowStarts)
	}
	if cellValues != 1 {
		t.Errorf("expected 1 cell value (Name column), got %d", cellValues)
	}
}

func TestSendTableRowReportsMissing(t *testing.T) {
	engine, ctx, tableID, _ := setupPeopleTable(t)

	var sawMissing bool
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return data.SendTableRow(tx, tableID, 999, func(ev types.CellEvent) error {
			if ev.RowExists != nil && !ev.RowExists.Exists {
				sawMissing = true
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("SendTableRow: %v", err)
	}
	if !sawMissing {
		t.Errorf("expected a RowExists=false event for a nonexistent row")
	}
}
