// Package schema implements the table subsystem (C4) and column
// subsystem (C5) of spec.md §4.4-§4.5: creating/editing/trashing user
// tables and columns, maintaining the surrogate-view dependency
// graph, and (per SPEC_FULL.md) single-inheritance object hierarchies
// and per-table sort overrides.
package schema

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/dyntab/dyntab/internal/dyerr"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

// CreateTable creates a new user table (spec.md §4.4 "Create(name)"):
// a new Type row mode 3 (Reference — a bare table has no meaningful
// variant of its own, so it is allocated through the same "type" id
// space as every other Table-backed Type), a new Table row, the
// physical relation, and its surrogate view.
func CreateTable(tx *storage.Tx, name string) (int64, error) {
	id, err := sqlite.NextID(tx, "type")
	if err != nil {
		return 0, fmt.Errorf("allocate table id: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO MTYPE (id, trash, mode) VALUES (?, 0, 3)", id); err != nil {
		return 0, fmt.Errorf("insert MTYPE row: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO MTABLE (id, trash, parent_table_id, name) VALUES (?, 0, NULL, ?)", id, name); err != nil {
		return 0, fmt.Errorf("insert MTABLE row: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE %s (OID INTEGER PRIMARY KEY, TRASH INTEGER NOT NULL DEFAULT 0)`, sqlite.TableName(id))
	if _, err := tx.Exec(ddl); err != nil {
		return 0, fmt.Errorf("create physical relation: %w", err)
	}

	if err := RebuildSurrogateGraph(tx, id); err != nil {
		return 0, err
	}

	return id, nil
}

// TrashTable sets the trash flag on the Table row (spec.md §4.4
// "Trash/restore(id) set/clear the trash flag on the Table row only").
func TrashTable(tx *storage.Tx, id int64) error {
	_, err := tx.Exec("UPDATE MTABLE SET trash = 1 WHERE id = ?", id)
	return err
}

// RestoreTable clears the trash flag on the Table row.
func RestoreTable(tx *storage.Tx, id int64) error {
	_, err := tx.Exec("UPDATE MTABLE SET trash = 0 WHERE id = ?", id)
	return err
}

// DeleteTable physically drops table id's relation, recursively
// deletes any child-table/single-select side relations owned by its
// columns, and removes its Type row, which cascades the Table and
// Column meta rows (spec.md §4.4 "Delete(id)").
func DeleteTable(tx *storage.Tx, id int64) error {
	cols, err := ColumnsByTable(tx, id, true)
	if err != nil {
		return fmt.Errorf("list columns for delete: %w", err)
	}
	for _, col := range cols {
		if err := demolishColumnSideState(tx, col); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("DROP VIEW IF EXISTS " + sqlite.SurrogateName(id)); err != nil {
		return fmt.Errorf("drop surrogate view: %w", err)
	}
	if _, err := tx.Exec("DROP TABLE IF EXISTS " + sqlite.TableName(id)); err != nil {
		return fmt.Errorf("drop physical relation: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM MTYPE WHERE id = ?", id); err != nil {
		return fmt.Errorf("remove Type row: %w", err)
	}
	return nil
}

// GetTableList returns non-trashed tables sorted by name (spec.md
// §4.4 "Table metadata listing").
func GetTableList(tx *storage.Tx) ([]types.TableListItem, error) {
	var out []types.TableListItem
	err := tx.Stream("SELECT id, name FROM MTABLE WHERE trash = 0 ORDER BY name", nil, func(r *sql.Rows) error {
		var item types.TableListItem
		if err := r.Scan(&item.OID, &item.Name); err != nil {
			return err
		}
		out = append(out, item)
		return nil
	})
	return out, err
}

// AddInheritance adds a directed inheritor -> master edge (SPEC_FULL's
// supplemented single-inheritance feature, grounded in
// original_source/src-tauri/src/backend/obj_type.rs). Rejects cycles
// with dyerr.SchemaCycle, using a breadth-first walk over existing
// master edges (masterReaches).
func AddInheritance(tx *storage.Tx, inheritorID, masterID int64) error {
	if inheritorID == masterID {
		return fmt.Errorf("%w: a table cannot inherit from itself", dyerr.SchemaCycle)
	}
	reaches, err := masterReaches(tx, masterID, inheritorID)
	if err != nil {
		return err
	}
	if reaches {
		return fmt.Errorf("%w: table %d already transitively inherits from %d", dyerr.SchemaCycle, masterID, inheritorID)
	}
	alreadyLinked, err := hasInheritanceEdge(tx, inheritorID, masterID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		"INSERT INTO MTABLE_INHERITANCE (inheritor_id, master_id, trash) VALUES (?, ?, 0) "+
			"ON CONFLICT(inheritor_id, master_id) DO UPDATE SET trash = 0",
		inheritorID, masterID,
	)
	if err != nil {
		return fmt.Errorf("insert inheritance edge: %w", err)
	}
	if !alreadyLinked {
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s INTEGER REFERENCES %s(OID) ON DELETE CASCADE",
			sqlite.TableName(inheritorID), sqlite.MasterColumnName(masterID), sqlite.TableName(masterID))
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("add master link column: %w", err)
		}
	}
	return RebuildSurrogateGraph(tx, inheritorID)
}

// RemoveInheritance removes (trashes) an inheritance edge and drops the
// physical master-link column it added.
func RemoveInheritance(tx *storage.Tx, inheritorID, masterID int64) error {
	_, err := tx.Exec(
		"UPDATE MTABLE_INHERITANCE SET trash = 1 WHERE inheritor_id = ? AND master_id = ?",
		inheritorID, masterID,
	)
	if err != nil {
		return err
	}
	ddl := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", sqlite.TableName(inheritorID), sqlite.MasterColumnName(masterID))
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("drop master link column: %w", err)
	}
	return RebuildSurrogateGraph(tx, inheritorID)
}

// hasInheritanceEdge reports whether an edge (trashed or not) already
// exists, so AddInheritance only adds the physical link column once.
func hasInheritanceEdge(tx *storage.Tx, inheritorID, masterID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(func(r *sql.Row) error {
		return r.Scan(&exists)
	}, "SELECT EXISTS(SELECT 1 FROM MTABLE_INHERITANCE WHERE inheritor_id = ? AND master_id = ?)", inheritorID, masterID)
	return exists, err
}

// masterReaches reports whether a walk of non-trashed inheritance
// edges starting at fromID ever reaches toID.
func masterReaches(tx *storage.Tx, fromID, toID int64) (bool, error) {
	visited := map[int64]bool{fromID: true}
	frontier := []int64{fromID}
	for len(frontier) > 0 {
		var next []int64
		for _, id := range frontier {
			if id == toID {
				return true, nil
			}
			var masters []int64
			err := tx.Stream(
				"SELECT master_id FROM MTABLE_INHERITANCE WHERE inheritor_id = ? AND trash = 0", []any{id},
				func(r *sql.Rows) error {
					var m int64
					if err := r.Scan(&m); err != nil {
						return err
					}
					masters = append(masters, m)
					return nil
				},
			)
			if err != nil {
				return false, err
			}
			for _, m := range masters {
				if !visited[m] {
					visited[m] = true
					next = append(next, m)
				}
			}
		}
		frontier = next
	}
	return false, nil
}

// Masters returns the non-trashed master table ids that tableID
// directly inherits from (used by internal/data for master joins).
func Masters(tx *storage.Tx, tableID int64) ([]int64, error) {
	var masters []int64
	err := tx.Stream(
		"SELECT master_id FROM MTABLE_INHERITANCE WHERE inheritor_id = ? AND trash = 0 ORDER BY master_id",
		[]any{tableID},
		func(r *sql.Rows) error {
			var m int64
			if err := r.Scan(&m); err != nil {
				return err
			}
			masters = append(masters, m)
			return nil
		},
	)
	return masters, err
}

// SetTableSort replaces tableID's order-by rows (SPEC_FULL's
// supplemented feature, spec.md §3 "Order-by row", §4.6's reference
// to "optional ORDER BY clauses... override the ordering"; grounded
// in original_source/src-tauri/src/backend/table.rs).
func SetTableSort(tx *storage.Tx, tableID int64, orderBys []types.OrderBy) error {
	if _, err := tx.Exec("DELETE FROM MORDER_BY WHERE table_id = ?", tableID); err != nil {
		return fmt.Errorf("clear existing sort: %w", err)
	}
	sorted := append([]types.OrderBy(nil), orderBys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ordering < sorted[j].Ordering })
	for _, ob := range sorted {
		ascending := 0
		if ob.Ascending {
			ascending = 1
		}
		_, err := tx.Exec(
			"INSERT INTO MORDER_BY (table_id, column_id, ordering, ascending) VALUES (?, ?, ?, ?)",
			tableID, ob.ColumnID, ob.Ordering, ascending,
		)
		if err != nil {
			return fmt.Errorf("insert order-by row: %w", err)
		}
	}
	return nil
}

// GetTableSort returns tableID's order-by rows in sort-ordering order.
func GetTableSort(tx *storage.Tx, tableID int64) ([]types.OrderBy, error) {
	var out []types.OrderBy
	err := tx.Stream(
		"SELECT table_id, column_id, ordering, ascending FROM MORDER_BY WHERE table_id = ? ORDER BY ordering",
		[]any{tableID},
		func(r *sql.Rows) error {
			var ob types.OrderBy
			var ascending int
			if err := r.Scan(&ob.TableID, &ob.ColumnID, &ob.Ordering, &ascending); err != nil {
				return err
			}
			ob.Ascending = ascending != 0
			out = append(out, ob)
			return nil
		},
	)
	return out, err
}
