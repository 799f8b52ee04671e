package schema

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dyntab/dyntab/internal/coltype"
	"github.com/dyntab/dyntab/internal/dyerr"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

// ColumnsByTable returns tableID's columns in ordering order.
// includeTrashed controls whether trashed columns are included.
func ColumnsByTable(tx *storage.Tx, tableID int64, includeTrashed bool) ([]types.Column, error) {
	query := "SELECT id, trash, table_id, name, type_id, mode, ordering, display_style, nullable, is_unique, primary_key, default_value " +
		"FROM MTABLE_COLUMN WHERE table_id = ?"
	if !includeTrashed {
		query += " AND trash = 0"
	}
	query += " ORDER BY ordering"

	var out []types.Column
	err := tx.Stream(query, []any{tableID}, func(r *sql.Rows) error {
		var c types.Column
		var trash, nullable, unique, pk int
		if err := r.Scan(&c.ID, &trash, &c.TableID, &c.Name, &c.TypeOID, &c.Mode, &c.Ordering,
			&c.DisplayStyle, &nullable, &unique, &pk, &c.DefaultValue); err != nil {
			return err
		}
		c.Trash = trash != 0
		c.Nullable = nullable != 0
		c.Unique = unique != 0
		c.PrimaryKey = pk != 0
		out = append(out, c)
		return nil
	})
	return out, err
}

// GetColumn loads one column by id.
func GetColumn(tx *storage.Tx, columnID int64) (types.Column, error) {
	var c types.Column
	var trash, nullable, unique, pk int
	err := tx.QueryRow(func(r *sql.Row) error {
		return r.Scan(&c.ID, &trash, &c.TableID, &c.Name, &c.TypeOID, &c.Mode, &c.Ordering,
			&c.DisplayStyle, &nullable, &unique, &pk, &c.DefaultValue)
	}, "SELECT id, trash, table_id, name, type_id, mode, ordering, display_style, nullable, is_unique, primary_key, default_value "+
		"FROM MTABLE_COLUMN WHERE id = ?", columnID)
	if err != nil {
		return types.Column{}, err
	}
	c.Trash = trash != 0
	c.Nullable = nullable != 0
	c.Unique = unique != 0
	c.PrimaryKey = pk != 0
	return c, nil
}

// CreateColumn creates a column on tableID (spec.md §4.5 "Create").
// When spec.Ordering is set, every not-trashed column on the table
// with ordering >= that value is shifted by +1 first (spec.md
// invariant 2); otherwise the column is appended at the tail.
func CreateColumn(tx *storage.Tx, tableID int64, spec types.ColumnSpec) (int64, error) {
	var ordering int
	if spec.Ordering != nil {
		ordering = *spec.Ordering
		if _, err := tx.Exec(
			"UPDATE MTABLE_COLUMN SET ordering = ordering + 1 WHERE table_id = ? AND ordering >= ? AND trash = 0",
			tableID, ordering,
		); err != nil {
			return 0, fmt.Errorf("shift successor orderings: %w", err)
		}
	} else {
		err := tx.QueryRow(func(r *sql.Row) error {
			var max sql.NullInt64
			if err := r.Scan(&max); err != nil {
				return err
			}
			if max.Valid {
				ordering = int(max.Int64) + 1
			} else {
				ordering = 1
			}
			return nil
		}, "SELECT MAX(ordering) FROM MTABLE_COLUMN WHERE table_id = ? AND trash = 0", tableID)
		if err != nil {
			return 0, fmt.Errorf("compute tail ordering: %w", err)
		}
	}

	ct := coltype.Decode(spec.TypeOID, spec.Mode)
	typeOID := spec.TypeOID
	mode := spec.Mode
	switch ct.Variant {
	case coltype.VariantSingleSelect, coltype.VariantMultiSelect, coltype.VariantChildTable:
		id, err := coltype.Materialize(tx, ct.Variant, tableID)
		if err != nil {
			return 0, fmt.Errorf("materialize column type side-state: %w", err)
		}
		typeOID = id
		mode = ct.Mode()
	}

	columnID, err := sqlite.NextID(tx, "column")
	if err != nil {
		return 0, fmt.Errorf("allocate column id: %w", err)
	}

	nullable, unique, pk := boolToInt(spec.Nullable), boolToInt(spec.Unique), boolToInt(spec.PrimaryKey)
	_, err = tx.Exec(
		"INSERT INTO MTABLE_COLUMN (id, trash, table_id, name, type_id, mode, ordering, display_style, nullable, is_unique, primary_key, default_value) "+
			"VALUES (?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		columnID, tableID, spec.Name, typeOID, mode, ordering, spec.DisplayStyle, nullable, unique, pk, spec.DefaultValue,
	)
	if err != nil {
		return 0, fmt.Errorf("insert Column row: %w", err)
	}

	if err := addPhysicalColumn(tx, tableID, columnID, coltype.Decode(typeOID, mode), spec); err != nil {
		return 0, err
	}

	if err := RebuildSurrogateGraph(tx, tableID); err != nil {
		return 0, err
	}

	return columnID, nil
}

// addPhysicalColumn ALTERs the backing table to add the storage
// column for ct, when it has one (spec.md §4.5).
func addPhysicalColumn(tx *storage.Tx, tableID, columnID int64, ct coltype.ColumnType, spec types.ColumnSpec) error {
	if !ct.HasPhysicalColumn() {
		return nil
	}

	colName := sqlite.ColumnName(columnID)
	switch ct.Variant {
	case coltype.VariantSingleSelect:
		ddl := fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN %s INTEGER REFERENCES %s(OID) ON UPDATE CASCADE ON DELETE SET NULL",
			sqlite.TableName(tableID), colName, sqlite.TableName(ct.TargetID),
		)
		_, err := tx.Exec(ddl)
		return err
	case coltype.VariantReference, coltype.VariantChildObject:
		ddl := fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN %s INTEGER REFERENCES %s(OID) ON UPDATE CASCADE ON DELETE SET DEFAULT",
			sqlite.TableName(tableID), colName, sqlite.TableName(ct.TargetID),
		)
		_, err := tx.Exec(ddl)
		return err
	default: // Primitive
		sqlType := ct.StorageType().SQL()
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", sqlite.TableName(tableID), colName, sqlType)
		_, err := tx.Exec(ddl)
		return err
	}
}

// EditColumn applies a structural change to columnID, possibly
// including a type change, following the sequence in spec.md §4.5
// "Edit". It returns the id of the trashed clone snapshotting the
// prior column row — the inverse payload for
// RestoreEditedColumnMetadata.
func EditColumn(tx *storage.Tx, tableID, columnID int64, spec types.ColumnSpec) (int64, error) {
	prior, err := GetColumn(tx, columnID)
	if err != nil {
		return 0, fmt.Errorf("load prior column: %w", err)
	}

	if _, err := tx.Exec("DROP VIEW IF EXISTS " + sqlite.SurrogateName(tableID)); err != nil {
		return 0, fmt.Errorf("drop surrogate view: %w", err)
	}

	cloneID, err := sqlite.NextID(tx, "column")
	if err != nil {
		return 0, fmt.Errorf("allocate clone id: %w", err)
	}
	_, err = tx.Exec(
		"INSERT INTO MTABLE_COLUMN (id, trash, table_id, name, type_id, mode, ordering, display_style, nullable, is_unique, primary_key, default_value) "+
			"VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		cloneID, prior.TableID, prior.Name, prior.TypeOID, prior.Mode, prior.Ordering, prior.DisplayStyle,
		boolToInt(prior.Nullable), boolToInt(prior.Unique), boolToInt(prior.PrimaryKey), prior.DefaultValue,
	)
	if err != nil {
		return 0, fmt.Errorf("snapshot prior column: %w", err)
	}

	priorType := coltype.Decode(prior.TypeOID, prior.Mode)
	newTypeOID, newMode := spec.TypeOID, spec.Mode
	newType := coltype.Decode(newTypeOID, newMode)
	typeChanged := priorType != newType

	var stagingTable string
	if typeChanged {
		if priorType.HasPhysicalColumn() {
			stagingTable = sqlite.StagingRelationName(cloneID)
			ddl := fmt.Sprintf("CREATE TABLE %s (OID INTEGER PRIMARY KEY, VALUE TEXT)", stagingTable)
			if _, err := tx.Exec(ddl); err != nil {
				return 0, fmt.Errorf("create staging relation: %w", err)
			}
			insert := fmt.Sprintf(
				"INSERT INTO %s (OID, VALUE) SELECT OID, CAST(%s AS TEXT) FROM %s",
				stagingTable, sqlite.ColumnName(columnID), sqlite.TableName(tableID),
			)
			if _, err := tx.Exec(insert); err != nil {
				return 0, fmt.Errorf("stage prior values: %w", err)
			}
			dropCol := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", sqlite.TableName(tableID), sqlite.ColumnName(columnID))
			if _, err := tx.Exec(dropCol); err != nil {
				return 0, fmt.Errorf("drop prior physical column: %w", err)
			}
			if priorType.Variant == coltype.VariantSingleSelect {
				if err := coltype.Demolish(tx, priorType); err != nil {
					return 0, fmt.Errorf("demolish prior single-select state: %w", err)
				}
			}
		} else {
			// MultiSelect / ChildTable: data cannot be carried losslessly.
			if err := coltype.Demolish(tx, priorType); err != nil {
				return 0, fmt.Errorf("demolish prior side state: %w", err)
			}
		}
	}

	if typeChanged && (newType.Variant == coltype.VariantSingleSelect || newType.Variant == coltype.VariantMultiSelect || newType.Variant == coltype.VariantChildTable) {
		id, err := coltype.Materialize(tx, newType.Variant, tableID)
		if err != nil {
			return 0, fmt.Errorf("materialize new column type side-state: %w", err)
		}
		newTypeOID = id
		newMode = newType.Mode()
	}

	_, err = tx.Exec(
		"UPDATE MTABLE_COLUMN SET name = ?, type_id = ?, mode = ?, display_style = ?, nullable = ?, is_unique = ?, primary_key = ?, default_value = ? WHERE id = ?",
		spec.Name, newTypeOID, newMode, spec.DisplayStyle, boolToInt(spec.Nullable), boolToInt(spec.Unique), boolToInt(spec.PrimaryKey), spec.DefaultValue, columnID,
	)
	if err != nil {
		return 0, fmt.Errorf("update column row: %w", err)
	}

	if typeChanged {
		if err := addPhysicalColumn(tx, tableID, columnID, coltype.Decode(newTypeOID, newMode), spec); err != nil {
			return 0, err
		}

		finalType := coltype.Decode(newTypeOID, newMode)
		if stagingTable != "" && finalType.HasPhysicalColumn() {
			sqlType := finalType.StorageType().SQL()
			copyQuery := fmt.Sprintf(
				"UPDATE OR IGNORE %s SET %s = CAST(trans.VALUE AS %s) FROM %s AS trans WHERE %s.OID = trans.OID",
				sqlite.TableName(tableID), sqlite.ColumnName(columnID), sqlType, stagingTable, sqlite.TableName(tableID),
			)
			if _, err := tx.Exec(copyQuery); err != nil {
				return 0, fmt.Errorf("copy staged values: %w", err)
			}
		}
		if stagingTable != "" {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + stagingTable); err != nil {
				return 0, fmt.Errorf("drop staging relation: %w", err)
			}
		}
	}

	if err := RebuildSurrogateGraph(tx, tableID); err != nil {
		return 0, err
	}

	return cloneID, nil
}

// RestoreEditedColumnMetadata undoes EditColumn using the clone id it
// returned: it restores the live column row's metadata from the
// trashed clone and deletes the clone (spec.md §4.5 "Return value").
// It does not attempt to reconstruct a discarded physical column's
// carried-over data beyond what the clone's own type materialization
// (re-run through CreateColumn-equivalent logic) can provide — the
// journal's inverse for a type change re-runs EditColumn with the
// clone's prior spec.
func RestoreEditedColumnMetadata(tx *storage.Tx, tableID, columnID, cloneID int64) (int64, error) {
	clone, err := GetColumn(tx, cloneID)
	if err != nil {
		return 0, fmt.Errorf("load clone: %w", err)
	}
	spec := types.ColumnSpec{
		Name:         clone.Name,
		TypeOID:      clone.TypeOID,
		Mode:         clone.Mode,
		DisplayStyle: clone.DisplayStyle,
		Nullable:     clone.Nullable,
		Unique:       clone.Unique,
		PrimaryKey:   clone.PrimaryKey,
		DefaultValue: clone.DefaultValue,
	}
	newCloneID, err := EditColumn(tx, tableID, columnID, spec)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("DELETE FROM MTABLE_COLUMN WHERE id = ?", cloneID); err != nil {
		return 0, fmt.Errorf("delete consumed clone: %w", err)
	}
	return newCloneID, nil
}

// TrashColumn sets the trash flag and rebuilds the surrogate view
// (trashed columns are excluded from it).
func TrashColumn(tx *storage.Tx, tableID, columnID int64) error {
	if _, err := tx.Exec("UPDATE MTABLE_COLUMN SET trash = 1 WHERE id = ?", columnID); err != nil {
		return err
	}
	return RebuildSurrogateGraph(tx, tableID)
}

// RestoreColumn clears the trash flag and rebuilds the surrogate view.
func RestoreColumn(tx *storage.Tx, tableID, columnID int64) error {
	if _, err := tx.Exec("UPDATE MTABLE_COLUMN SET trash = 0 WHERE id = ?", columnID); err != nil {
		return err
	}
	return RebuildSurrogateGraph(tx, tableID)
}

// DeleteColumn demolishes the physical column and any type side
// state, and removes the Column meta row (spec.md §4.5 "Delete").
func DeleteColumn(tx *storage.Tx, columnID int64) error {
	col, err := GetColumn(tx, columnID)
	if err != nil {
		return fmt.Errorf("load column: %w", err)
	}
	if err := demolishColumnSideState(tx, col); err != nil {
		return err
	}
	ct := coltype.Decode(col.TypeOID, col.Mode)
	if ct.HasPhysicalColumn() {
		ddl := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", sqlite.TableName(col.TableID), sqlite.ColumnName(columnID))
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("drop physical column: %w", err)
		}
	}
	if _, err := tx.Exec("DELETE FROM MTABLE_COLUMN WHERE id = ?", columnID); err != nil {
		return fmt.Errorf("delete Column row: %w", err)
	}
	return RebuildSurrogateGraph(tx, col.TableID)
}

func demolishColumnSideState(tx *storage.Tx, col types.Column) error {
	ct := coltype.Decode(col.TypeOID, col.Mode)
	switch ct.Variant {
	case coltype.VariantSingleSelect, coltype.VariantMultiSelect, coltype.VariantChildTable:
		return coltype.Demolish(tx, ct)
	default:
		return nil
	}
}

// SetDropdownValues replaces columnID's dropdown values relation
// (spec.md §4.5 "Dropdown values"; SPEC_FULL's supplemented
// normalization, grounded in
// original_source/src-tauri/src/backend/column.rs, which trims and
// rejects empty/duplicate values before insert).
func SetDropdownValues(tx *storage.Tx, columnID int64, values []string) error {
	col, err := GetColumn(tx, columnID)
	if err != nil {
		return fmt.Errorf("load column: %w", err)
	}
	ct := coltype.Decode(col.TypeOID, col.Mode)
	if ct.Variant != coltype.VariantSingleSelect && ct.Variant != coltype.VariantMultiSelect {
		return fmt.Errorf("%w: SetDropdownValues called on non-dropdown column", dyerr.DomainRejected)
	}

	seen := make(map[string]bool, len(values))
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		normalized = append(normalized, v)
	}

	valuesTable := sqlite.TableName(ct.TargetID)
	if _, err := tx.Exec("UPDATE " + valuesTable + " SET TRASH = 1"); err != nil {
		return fmt.Errorf("trash existing values: %w", err)
	}
	for _, v := range normalized {
		_, err := tx.Exec(
			"INSERT INTO "+valuesTable+" (VALUE, TRASH) VALUES (?, 0) ON CONFLICT(VALUE) DO UPDATE SET TRASH = 0",
			v,
		)
		if err != nil {
			return fmt.Errorf("upsert dropdown value %q: %w", v, err)
		}
	}
	return nil
}

// GetDropdownValues returns columnID's dropdown values (spec.md §4.5
// "getDropdownValues"). For Reference columns it instead projects the
// target table's surrogate view.
func GetDropdownValues(tx *storage.Tx, columnID int64) ([]types.DropdownValue, error) {
	col, err := GetColumn(tx, columnID)
	if err != nil {
		return nil, fmt.Errorf("load column: %w", err)
	}
	ct := coltype.Decode(col.TypeOID, col.Mode)

	var query string
	var args []any
	switch ct.Variant {
	case coltype.VariantSingleSelect, coltype.VariantMultiSelect:
		query = "SELECT CAST(OID AS TEXT), VALUE FROM " + sqlite.TableName(ct.TargetID) + " WHERE TRASH = 0 ORDER BY VALUE"
	case coltype.VariantReference:
		query = "SELECT CAST(OID AS TEXT), DISPLAY_VALUE FROM " + sqlite.SurrogateName(ct.TargetID) + " ORDER BY DISPLAY_VALUE"
	default:
		return nil, nil
	}

	var out []types.DropdownValue
	err = tx.Stream(query, args, func(r *sql.Rows) error {
		var dv types.DropdownValue
		if err := r.Scan(&dv.TrueValue, &dv.DisplayValue); err != nil {
			return err
		}
		out = append(out, dv)
		return nil
	})
	return out, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
