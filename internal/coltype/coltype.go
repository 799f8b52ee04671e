// Package coltype implements the column-type algebra (C3, spec.md
// §4.3): the closed sum type describing a column's type, its
// encoding to/from the meta-schema pair (type_oid, mode), its storage
// representation, and the side-tables it requires.
package coltype

import (
	"fmt"

	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

// Variant tags the six closed cases of ColumnType (spec.md §4.3).
type Variant int

const (
	VariantPrimitive Variant = iota
	VariantSingleSelect
	VariantMultiSelect
	VariantReference
	VariantChildObject
	VariantChildTable
)

// ColumnType is the closed tagged variant spec.md §4.3 describes:
// Primitive(p), SingleSelect(typeId), MultiSelect(typeId),
// Reference(tableId), ChildObject(tableId), ChildTable(typeId). Only
// the field matching Variant is meaningful.
type ColumnType struct {
	Variant   Variant
	Primitive types.Primitive // Variant == VariantPrimitive
	TargetID  int64           // dropdown-values/referenced-table/child-table id, per variant
}

// Mode returns the meta-schema mode tag for t (spec.md §4.3 table).
func (t ColumnType) Mode() int { return int(t.Variant) }

// OID returns the meta-schema type_oid for t (spec.md §4.3 table).
func (t ColumnType) OID() int64 {
	if t.Variant == VariantPrimitive {
		return int64(t.Primitive)
	}
	return t.TargetID
}

// String renders the variant name and payload, used as the wire
// "columnType" tagged enumeration (spec.md §6).
func (t ColumnType) String() string {
	switch t.Variant {
	case VariantPrimitive:
		return fmt.Sprintf("Primitive(%s)", t.Primitive)
	case VariantSingleSelect:
		return fmt.Sprintf("SingleSelect(%d)", t.TargetID)
	case VariantMultiSelect:
		return fmt.Sprintf("MultiSelect(%d)", t.TargetID)
	case VariantReference:
		return fmt.Sprintf("Reference(%d)", t.TargetID)
	case VariantChildObject:
		return fmt.Sprintf("ChildObject(%d)", t.TargetID)
	case VariantChildTable:
		return fmt.Sprintf("ChildTable(%d)", t.TargetID)
	default:
		return "Primitive(any)"
	}
}

// Decode builds a ColumnType from a meta-schema (type_oid, mode) pair.
// Unknown mode/oid combinations degrade to Primitive(Any) rather than
// failing — spec.md §4.3 explicitly preserves this source behavior.
func Decode(typeOID int64, mode int) ColumnType {
	switch mode {
	case int(VariantPrimitive):
		p := types.Primitive(typeOID)
		if !p.IsValid() {
			return ColumnType{Variant: VariantPrimitive, Primitive: types.PrimitiveAny}
		}
		return ColumnType{Variant: VariantPrimitive, Primitive: p}
	case int(VariantSingleSelect):
		return ColumnType{Variant: VariantSingleSelect, TargetID: typeOID}
	case int(VariantMultiSelect):
		return ColumnType{Variant: VariantMultiSelect, TargetID: typeOID}
	case int(VariantReference):
		return ColumnType{Variant: VariantReference, TargetID: typeOID}
	case int(VariantChildObject):
		return ColumnType{Variant: VariantChildObject, TargetID: typeOID}
	case int(VariantChildTable):
		return ColumnType{Variant: VariantChildTable, TargetID: typeOID}
	default:
		return ColumnType{Variant: VariantPrimitive, Primitive: types.PrimitiveAny}
	}
}

// StorageType returns the SQLite column affinity used to persist
// values of this column type (spec.md §4.3). Dropdown/reference-shaped
// columns are stored as integer ids; MultiSelect and ChildTable carry
// no physical column.
func (t ColumnType) StorageType() types.StorageType {
	switch t.Variant {
	case VariantPrimitive:
		return t.Primitive.StorageType()
	case VariantSingleSelect, VariantReference, VariantChildObject:
		return types.StorageInteger
	default:
		return types.StorageAny
	}
}

// HasPhysicalColumn reports whether this column type occupies a
// physical column on its owning table, versus living entirely in a
// side relation (spec.md §4.5: "multi-select / child-table: no
// physical column").
func (t ColumnType) HasPhysicalColumn() bool {
	return t.Variant != VariantMultiSelect && t.Variant != VariantChildTable
}

// Materialize allocates the side-state a SingleSelect/MultiSelect/
// ChildTable column needs before it can be added to host (spec.md
// §4.3 "Construct/demolish side state"). It returns the freshly
// allocated type id (== TargetID of the ColumnType the caller should
// store). Primitive/Reference/ChildObject need no side-state and
// Materialize must not be called for them.
func Materialize(tx *storage.Tx, variant Variant, hostTableID int64) (int64, error) {
	typeID, err := sqlite.NextID(tx, "type")
	if err != nil {
		return 0, fmt.Errorf("allocate type id: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO MTYPE (id, trash, mode) VALUES (?, 0, ?)", typeID, int(variant)); err != nil {
		return 0, fmt.Errorf("insert MTYPE row: %w", err)
	}

	switch variant {
	case VariantSingleSelect, VariantMultiSelect:
		valuesTable := sqlite.TableName(typeID)
		ddl := fmt.Sprintf(`CREATE TABLE %s (
			OID INTEGER PRIMARY KEY,
			TRASH INTEGER NOT NULL DEFAULT 0,
			VALUE TEXT NOT NULL UNIQUE
		)`, valuesTable)
		if _, err := tx.Exec(ddl); err != nil {
			return 0, fmt.Errorf("create dropdown-values relation: %w", err)
		}
		if variant == VariantMultiSelect {
			link := sqlite.MultiselectLinkName(typeID)
			ddl := fmt.Sprintf(`CREATE TABLE %s (
				ROW_ID INTEGER NOT NULL,
				VALUE_ID INTEGER NOT NULL REFERENCES %s(OID) ON DELETE CASCADE,
				PRIMARY KEY (ROW_ID, VALUE_ID)
			)`, link, valuesTable)
			if _, err := tx.Exec(ddl); err != nil {
				return 0, fmt.Errorf("create multiselect link relation: %w", err)
			}
		}
	case VariantChildTable:
		childTable := sqlite.TableName(typeID)
		ddl := fmt.Sprintf(`CREATE TABLE %s (
			OID INTEGER PRIMARY KEY,
			TRASH INTEGER NOT NULL DEFAULT 0,
			PARENT_OID INTEGER REFERENCES %s(OID) ON DELETE CASCADE
		)`, childTable, sqlite.TableName(hostTableID))
		if _, err := tx.Exec(ddl); err != nil {
			return 0, fmt.Errorf("create child-table relation: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO MTABLE (id, trash, parent_table_id, name) VALUES (?, 0, ?, ?)",
			typeID, hostTableID, childTable,
		); err != nil {
			return 0, fmt.Errorf("insert MTABLE row for child table: %w", err)
		}
		// A freshly materialized child table has no columns yet, so its
		// surrogate view is the zero-primary-key case of spec.md §4.4's
		// surrogate rules (see schema.buildSurrogateSQL): every row
		// displays as "no primary key" until columns are added, at which
		// point schema.RebuildSurrogateGraph regenerates it. Built inline
		// here rather than via the schema package to avoid a coltype<->
		// schema import cycle (schema already imports coltype).
		surrogateSQL := fmt.Sprintf(
			"SELECT t.OID AS OID, "+
				"CASE WHEN t.TRASH = 1 THEN '— DELETED —' ELSE '— NO PRIMARY KEY —' END AS DISPLAY_VALUE, "+
				"CASE WHEN t.TRASH = 1 THEN NULL ELSE '{}' END AS JSON_DISPLAY_VALUE "+
				"FROM %s t", childTable,
		)
		if _, err := tx.Exec("CREATE VIEW " + sqlite.SurrogateName(typeID) + " AS " + surrogateSQL); err != nil {
			return 0, fmt.Errorf("create child-table surrogate: %w", err)
		}
	default:
		return 0, fmt.Errorf("materialize called for variant %d which needs no side-state", variant)
	}

	return typeID, nil
}

// Demolish drops the side-state materialized for t (spec.md §4.3
// "Demolition is the inverse"). No-op for Primitive/Reference/
// ChildObject columns.
func Demolish(tx *storage.Tx, t ColumnType) error {
	switch t.Variant {
	case VariantSingleSelect, VariantMultiSelect:
		if t.Variant == VariantMultiSelect {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + sqlite.MultiselectLinkName(t.TargetID)); err != nil {
				return fmt.Errorf("drop multiselect link relation: %w", err)
			}
		}
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + sqlite.TableName(t.TargetID)); err != nil {
			return fmt.Errorf("drop dropdown-values relation: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM MTYPE WHERE id = ?", t.TargetID); err != nil {
			return fmt.Errorf("remove Type row: %w", err)
		}
	case VariantChildTable:
		if _, err := tx.Exec("DROP VIEW IF EXISTS " + sqlite.SurrogateName(t.TargetID)); err != nil {
			return fmt.Errorf("drop child-table surrogate: %w", err)
		}
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + sqlite.TableName(t.TargetID)); err != nil {
			return fmt.Errorf("drop child-table relation: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM MTABLE WHERE id = ?", t.TargetID); err != nil {
			return fmt.Errorf("remove MTABLE row: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM MTYPE WHERE id = ?", t.TargetID); err != nil {
			return fmt.Errorf("remove Type row: %w", err)
		}
	}
	return nil
}
