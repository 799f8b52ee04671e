package schema

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/dyntab/dyntab/internal/dyerr"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
)

// RebuildSurrogateGraph drops and recreates rootID's surrogate view and
// every surrogate that transitively depends on it through a
// primary-key Reference/ChildObject column, in ascending depth order
// (spec.md §4.4 "Dependency recomputation"; the ascending order
// follows §9's resolution of the source's max-heap ambiguity).
func RebuildSurrogateGraph(tx *storage.Tx, rootID int64) error {
	depths, order, err := computeRebuildOrder(tx, rootID)
	if err != nil {
		return err
	}
	_ = depths

	for _, id := range order {
		if _, err := tx.Exec("DROP VIEW IF EXISTS " + sqlite.SurrogateName(id)); err != nil {
			return fmt.Errorf("drop surrogate view for table %d: %w", id, err)
		}
	}
	for _, id := range order {
		viewSQL, err := buildSurrogateSQL(tx, id)
		if err != nil {
			return fmt.Errorf("build surrogate view for table %d: %w", id, err)
		}
		if _, err := tx.Exec("CREATE VIEW " + sqlite.SurrogateName(id) + " AS " + viewSQL); err != nil {
			return fmt.Errorf("create surrogate view for table %d: %w", id, err)
		}
	}
	return nil
}

// computeRebuildOrder walks the reverse edge "table Y has a
// primary-key column of type Reference/ChildObject targeting X" from
// rootID, collecting every dependent with its maximum depth from
// rootID. It fails with dyerr.SchemaCycle if the walk re-enters a
// table already on the current chain.
func computeRebuildOrder(tx *storage.Tx, rootID int64) (map[int64]int, []int64, error) {
	depths := map[int64]int{rootID: 0}
	chain := map[int64]bool{rootID: true}

	var walk func(id int64, depth int) error
	walk = func(id int64, depth int) error {
		deps, err := directDependents(tx, id)
		if err != nil {
			return err
		}
		for _, d := range deps {
			if chain[d] {
				return fmt.Errorf("%w: surrogate dependency walk re-entered table %d", dyerr.SchemaCycle, d)
			}
			nextDepth := depth + 1
			if existing, ok := depths[d]; !ok || nextDepth > existing {
				depths[d] = nextDepth
			}
			chain[d] = true
			if err := walk(d, nextDepth); err != nil {
				return err
			}
			delete(chain, d)
		}
		return nil
	}

	if err := walk(rootID, 0); err != nil {
		return nil, nil, err
	}

	order := make([]int64, 0, len(depths))
	for id := range depths {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		if depths[order[i]] != depths[order[j]] {
			return depths[order[i]] < depths[order[j]]
		}
		return order[i] < order[j]
	})
	return depths, order, nil
}

// directDependents returns the tables with a non-trashed primary-key
// Reference/ChildObject column whose type targets tableID (spec.md
// §4.4 "Reference/Object columns not marked primary-key do not create
// a surrogate-view dependency").
func directDependents(tx *storage.Tx, tableID int64) ([]int64, error) {
	var out []int64
	err := tx.Stream(
		"SELECT DISTINCT table_id FROM MTABLE_COLUMN "+
			"WHERE trash = 0 AND primary_key = 1 AND mode IN (3, 4) AND type_id = ?",
		[]any{tableID},
		func(r *sql.Rows) error {
			var id int64
			if err := r.Scan(&id); err != nil {
				return err
			}
			out = append(out, id)
			return nil
		},
	)
	return out, err
}
