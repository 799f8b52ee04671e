package schema_test

import (
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dyntab/dyntab/internal/schema"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

func TestCreateTableAndList(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)

	var tableID int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		id, err := schema.CreateTable(tx, "People")
		tableID = id
		return err
	})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if tableID != 10 {
		t.Fatalf("expected first user table id 10 (after 0-9 seeded primitives), got %d", tableID)
	}

	var list []types.TableListItem
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		list, err = schema.GetTableList(tx)
		return err
	})
	if err != nil {
		t.Fatalf("GetTableList: %v", err)
	}
	if len(list) != 1 || list[0].OID != tableID || list[0].Name != "People" {
		t.Fatalf("GetTableList = %+v, want single People entry", list)
	}
}

func TestSurrogateNoPrimaryKey(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)

	var tableID int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		id, err := schema.CreateTable(tx, "People")
		if err != nil {
			return err
		}
		tableID = id
		_, err = schema.CreateColumn(tx, tableID, types.ColumnSpec{
			Name: "Name", TypeOID: 6 /* Text */, Mode: 0, Nullable: false,
		})
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		if _, err := tx.Exec("INSERT INTO " + sqlite.TableName(tableID) + " (OID) VALUES (1)"); err != nil {
			return err
		}
		var display string
		return tx.QueryRow(func(r *sql.Row) error { return r.Scan(&display) },
			"SELECT DISPLAY_VALUE FROM "+sqlite.SurrogateName(tableID)+" WHERE OID = 1")
	})
	if err != nil {
		t.Fatalf("query surrogate: %v", err)
	}
}

func TestCreateColumnShiftsOrdering(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)

	var tableID, firstCol, secondCol, insertedCol int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		tableID, err = schema.CreateTable(tx, "Items")
		if err != nil {
			return err
		}
		firstCol, err = schema.CreateColumn(tx, tableID, types.ColumnSpec{Name: "A", TypeOID: 6, Mode: 0})
		if err != nil {
			return err
		}
		secondCol, err = schema.CreateColumn(tx, tableID, types.ColumnSpec{Name: "B", TypeOID: 6, Mode: 0})
		if err != nil {
			return err
		}
		zero := 1
		insertedCol, err = schema.CreateColumn(tx, tableID, types.ColumnSpec{Name: "C", TypeOID: 6, Mode: 0, Ordering: &zero})
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	var cols []types.Column
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		cols, err = schema.ColumnsByTable(tx, tableID, false)
		return err
	})
	if err != nil {
		t.Fatalf("ColumnsByTable: %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	if cols[0].ID != insertedCol {
		t.Errorf("expected inserted column (ordering 1) first, got column id %d", cols[0].ID)
	}
	if cols[1].ID != firstCol || cols[2].ID != secondCol {
		t.Errorf("expected original columns shifted after inserted column, got order %d, %d, %d",
			cols[0].ID, cols[1].ID, cols[2].ID)
	}
}

func TestInheritanceCycleRejected(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)

	var a, b int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		a, err = schema.CreateTable(tx, "A")
		if err != nil {
			return err
		}
		b, err = schema.CreateTable(tx, "B")
		if err != nil {
			return err
		}
		return schema.AddInheritance(tx, b, a)
	})
	if err != nil {
		t.Fatalf("setup inheritance: %v", err)
	}

	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return schema.AddInheritance(tx, a, b)
	})
	if err == nil {
		t.Fatalf("expected cycle rejection when A inherits from B after B inherits from A")
	}
}

func TestSetDropdownValuesNormalizes(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)

	var tableID, columnID int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		tableID, err = schema.CreateTable(tx, "Tasks")
		if err != nil {
			return err
		}
		columnID, err = schema.CreateColumn(tx, tableID, types.ColumnSpec{Name: "Status", TypeOID: 0, Mode: 1})
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return schema.SetDropdownValues(tx, columnID, []string{" open ", "open", "", "closed"})
	})
	if err != nil {
		t.Fatalf("SetDropdownValues: %v", err)
	}

	var values []types.DropdownValue
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		values, err = schema.GetDropdownValues(tx, columnID)
		return err
	})
	if err != nil {
		t.Fatalf("GetDropdownValues: %v", err)
	}
	want := []types.DropdownValue{
		{TrueValue: "2", DisplayValue: "closed"},
		{TrueValue: "1", DisplayValue: "open"},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("dropdown values after dedupe/trim (-want +got):\n%s", diff)
	}
}
