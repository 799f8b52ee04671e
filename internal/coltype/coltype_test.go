package coltype_test

import (
	"testing"

	"github.com/dyntab/dyntab/internal/coltype"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	cases := []coltype.ColumnType{
		{Variant: coltype.VariantPrimitive, Primitive: types.PrimitiveText},
		{Variant: coltype.VariantSingleSelect, TargetID: 100},
		{Variant: coltype.VariantMultiSelect, TargetID: 101},
		{Variant: coltype.VariantReference, TargetID: 42},
		{Variant: coltype.VariantChildObject, TargetID: 43},
		{Variant: coltype.VariantChildTable, TargetID: 44},
	}
	for _, ct := range cases {
		got := coltype.Decode(ct.OID(), ct.Mode())
		if got != ct {
			t.Errorf("Decode(Encode(%v)) = %v, want %v", ct, got, ct)
		}
	}
}

func TestDecodeUnknownDegradesToPrimitiveAny(t *testing.T) {
	got := coltype.Decode(999, 99)
	want := coltype.ColumnType{Variant: coltype.VariantPrimitive, Primitive: types.PrimitiveAny}
	if got != want {
		t.Errorf("Decode(999,99) = %v, want degrade to %v", got, want)
	}

	got = coltype.Decode(255, 0)
	if got.Primitive != types.PrimitiveAny {
		t.Errorf("Decode with out-of-range primitive oid should degrade to Any, got %v", got)
	}
}

func TestMaterializeSingleSelectCreatesValuesRelation(t *testing.T) {
	engine, ctx := sqlite.NewTestEngine(t)

	var typeID int64
	err := engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		id, err := coltype.Materialize(tx, coltype.VariantSingleSelect, 0)
		if err != nil {
			return err
		}
		typeID = id
		_, err = tx.Exec("INSERT INTO " + sqlite.TableName(typeID) + " (VALUE) VALUES ('red')")
		return err
	})
	if err != nil {
		t.Fatalf("materialize+insert: %v", err)
	}

	ct := coltype.ColumnType{Variant: coltype.VariantSingleSelect, TargetID: typeID}
	err = engine.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return coltype.Demolish(tx, ct)
	})
	if err != nil {
		t.Fatalf("demolish: %v", err)
	}
}

func TestMultiSelectHasNoPhysicalColumn(t *testing.T) {
	ct := coltype.ColumnType{Variant: coltype.VariantMultiSelect, TargetID: 1}
	if ct.HasPhysicalColumn() {
		t.Errorf("MultiSelect must not have a physical column")
	}
	ct = coltype.ColumnType{Variant: coltype.VariantChildTable, TargetID: 1}
	if ct.HasPhysicalColumn() {
		t.Errorf("ChildTable must not have a physical column")
	}
	ct = coltype.ColumnType{Variant: coltype.VariantReference, TargetID: 1}
	if !ct.HasPhysicalColumn() {
		t.Errorf("Reference must have a physical column")
	}
}
