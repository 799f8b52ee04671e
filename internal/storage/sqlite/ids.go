package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/dyntab/dyntab/internal/storage"
)

// NextID allocates the next monotonic id in namespace (spec.md §3
// "Identifiers"). namespace is "type" for Type/Table ids (they share
// one space, since a Table's id equals its Type's id for object-like
// kinds) or "column" for Column ids. Row ids are not allocated here —
// they are the physical relation's own rowid, manipulated directly by
// internal/data's insert/renumber logic (spec.md §4.6).
func NextID(tx *storage.Tx, namespace string) (int64, error) {
	var next int64
	err := tx.QueryRow(func(r *sql.Row) error {
		return r.Scan(&next)
	}, "SELECT next FROM MSEQUENCE WHERE name = ?", namespace)
	if err != nil {
		return 0, fmt.Errorf("allocate id in namespace %q: %w", namespace, err)
	}
	if _, err := tx.Exec("UPDATE MSEQUENCE SET next = next + 1 WHERE name = ?", namespace); err != nil {
		return 0, fmt.Errorf("advance id sequence %q: %w", namespace, err)
	}
	return next, nil
}

// TableName renders the physical relation name for user table id.
func TableName(id int64) string { return fmt.Sprintf("TABLE_%d", id) }

// ColumnName renders the physical column name for column id.
func ColumnName(id int64) string { return fmt.Sprintf("COLUMN_%d", id) }

// SurrogateName renders the surrogate view name for user table id
// (spec.md §4.4, GLOSSARY).
func SurrogateName(id int64) string { return fmt.Sprintf("TABLE_%d_SURROGATE", id) }

// MultiselectLinkName renders the link relation name for a MultiSelect
// type's values relation id (spec.md §4.3).
func MultiselectLinkName(valuesTypeID int64) string { return fmt.Sprintf("TABLE_%d_MULTISELECT", valuesTypeID) }

// MasterAlias renders the join alias used for an inherited master
// table in a data-read query (spec.md §4.6).
func MasterAlias(masterTableID int64) string { return fmt.Sprintf("m%d", masterTableID) }

// MasterColumnName renders the foreign-key column a table carries for
// one of its inherited masters (spec.md §3 "User-data row").
func MasterColumnName(masterTableID int64) string { return fmt.Sprintf("MASTER_%d_OID", masterTableID) }

// StagingRelationName renders the staging relation name used during a
// column type change (spec.md §4.5 step 4, GLOSSARY "Staging
// relation").
func StagingRelationName(cloneID int64) string { return fmt.Sprintf("TRANS_COLUMN_%d", cloneID) }
