package data

import (
	"database/sql"
	"fmt"

	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
)

// PushRow appends a new row to the end of tableID (spec.md §4.6
// "pushRow"), triggering the inherited-master surrogate rebuild is not
// needed here: rows never change a surrogate view's SQL, only its
// contents.
func PushRow(tx *storage.Tx, tableID int64) (int64, error) {
	res, err := tx.Exec("INSERT INTO " + sqlite.TableName(tableID) + " (TRASH) VALUES (0)")
	if err != nil {
		return 0, fmt.Errorf("push row into table %d: %w", tableID, err)
	}
	return res.LastInsertId()
}

// InsertRow inserts a new row at targetOID, renumbering every row whose
// OID is >= targetOID up by one (spec.md §4.6 "insertRow", §8 property
// 4). Rows are renumbered in descending OID order so no UPDATE ever
// collides with another row's current id.
//
// Renumbering a row's OID does not follow foreign keys pointing at it
// (Reference/ChildObject/child-table/multiselect-link columns keyed on
// the old OID); this mirrors the source implementation's behavior and
// is recorded as a known limitation rather than silently patched.
func InsertRow(tx *storage.Tx, tableID int64, targetOID int64) (int64, error) {
	table := sqlite.TableName(tableID)

	var shift []int64
	err := tx.Stream(
		"SELECT OID FROM "+table+" WHERE OID >= ? ORDER BY OID DESC",
		[]any{targetOID},
		func(r *sql.Rows) error {
			var oid int64
			if err := r.Scan(&oid); err != nil {
				return err
			}
			shift = append(shift, oid)
			return nil
		},
	)
	if err != nil {
		return 0, fmt.Errorf("scan rows to shift in table %d: %w", tableID, err)
	}

	for _, oid := range shift {
		if _, err := tx.Exec("UPDATE "+table+" SET OID = OID + 1 WHERE OID = ?", oid); err != nil {
			return 0, fmt.Errorf("renumber row %d in table %d: %w", oid, tableID, err)
		}
	}

	if _, err := tx.Exec("INSERT INTO "+table+" (OID, TRASH) VALUES (?, 0)", targetOID); err != nil {
		return 0, fmt.Errorf("insert row at %d in table %d: %w", targetOID, tableID, err)
	}
	return targetOID, nil
}

// TrashRow marks a row deleted without removing it (spec.md §4.6).
func TrashRow(tx *storage.Tx, tableID, rowID int64) error {
	return setRowTrash(tx, tableID, rowID, true)
}

// RestoreRow un-marks a trashed row (spec.md §4.6).
func RestoreRow(tx *storage.Tx, tableID, rowID int64) error {
	return setRowTrash(tx, tableID, rowID, false)
}

func setRowTrash(tx *storage.Tx, tableID, rowID int64, trash bool) error {
	_, err := tx.Exec("UPDATE "+sqlite.TableName(tableID)+" SET TRASH = ? WHERE OID = ?", boolToInt(trash), rowID)
	if err != nil {
		return fmt.Errorf("set trash=%v on row %d of table %d: %w", trash, rowID, tableID, err)
	}
	return nil
}

// DeleteRow physically removes a row (spec.md §4.6). Child-table and
// multiselect-link rows keyed off this row's OID cascade via the
// physical foreign keys declared in coltype.Materialize.
func DeleteRow(tx *storage.Tx, tableID, rowID int64) error {
	if _, err := tx.Exec("DELETE FROM "+sqlite.TableName(tableID)+" WHERE OID = ?", rowID); err != nil {
		return fmt.Errorf("delete row %d from table %d: %w", rowID, tableID, err)
	}
	return nil
}

// RowExists reports whether rowID is present in tableID, trashed or not.
func RowExists(tx *storage.Tx, tableID, rowID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(func(r *sql.Row) error {
		return r.Scan(&exists)
	}, "SELECT EXISTS(SELECT 1 FROM "+sqlite.TableName(tableID)+" WHERE OID = ?)", rowID)
	return exists, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
