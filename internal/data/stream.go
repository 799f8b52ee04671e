package data

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/dyntab/dyntab/internal/coltype"
	"github.com/dyntab/dyntab/internal/schema"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

// SendTableData streams every row of tableID (trashed rows included)
// to sink as RowStart/ColumnValue events, one row at a time, in the
// table's configured order (spec.md §4.6 "sendTableData", §6).
func SendTableData(tx *storage.Tx, tableID int64, sink types.Sink) error {
	plan, err := buildQuery(tx, tableID, "", nil)
	if err != nil {
		return err
	}
	unique, err := uniqueViolations(tx, tableID, plan)
	if err != nil {
		return err
	}

	return tx.Stream(plan.sql, nil, func(r *sql.Rows) error {
		return scanAndEmitRow(r, plan, unique, sink)
	})
}

// SendTableRow streams a single row (or a RowExists=false event if it
// is absent) (spec.md §4.6 "sendTableRow", §6).
func SendTableRow(tx *storage.Tx, tableID, rowID int64, sink types.Sink) error {
	plan, err := buildQuery(tx, tableID, "t.OID = ?", []any{rowID})
	if err != nil {
		return err
	}
	unique, err := uniqueViolations(tx, tableID, plan)
	if err != nil {
		return err
	}

	found := false
	err = tx.Stream(plan.sql, []any{rowID}, func(r *sql.Rows) error {
		found = true
		return scanAndEmitRow(r, plan, unique, sink)
	})
	if err != nil {
		return err
	}
	return sink(types.CellEvent{RowExists: &types.RowExists{Exists: found}})
}

// scanAndEmitRow reads one result row per queryPlan's column layout
// (ROW_OID, ROW_TRASH, ROW_INDEX, then per projection: true value
// column if present, then display value column) and emits the
// RowStart followed by one ColumnValue per projected column.
func scanAndEmitRow(r *sql.Rows, plan queryPlan, unique map[int64]map[int64]bool, sink types.Sink) error {
	width := 3
	for _, p := range plan.projections {
		if p.trueCol != "" {
			width++
		}
		width++
	}
	vals := make([]sql.NullString, width)
	dest := make([]any, width)
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := r.Scan(dest...); err != nil {
		return fmt.Errorf("scan data row: %w", err)
	}

	rowOID, _ := strconv.ParseInt(vals[0].String, 10, 64)
	rowIndex, _ := strconv.ParseInt(vals[2].String, 10, 64)

	if err := sink(types.CellEvent{RowStart: &types.RowStart{RowOID: rowOID, RowIndex: rowIndex}}); err != nil {
		return err
	}

	pos := 3
	for _, proj := range plan.projections {
		var trueVal *string
		if proj.trueCol != "" {
			if vals[pos].Valid {
				s := vals[pos].String
				trueVal = &s
			}
			pos++
		}
		var dispVal *string
		if vals[pos].Valid {
			s := vals[pos].String
			dispVal = &s
		}
		pos++

		cv := types.ColumnValue{
			TableOID:     proj.ownerTable,
			RowOID:       rowOID,
			ColumnOID:    proj.column.ID,
			ColumnType:   proj.ct.String(),
			TrueValue:    trueVal,
			DisplayValue: dispVal,
		}
		if !proj.column.Nullable && dispVal == nil && proj.ct.HasPhysicalColumn() {
			cv.FailedValidations = append(cv.FailedValidations, types.FailedValidation{
				Description: fmt.Sprintf("%s cannot be NULL!", proj.column.Name),
			})
		}
		if dups, ok := unique[proj.column.ID]; ok && dups[rowOID] {
			cv.FailedValidations = append(cv.FailedValidations, types.FailedValidation{
				Description: fmt.Sprintf("%s value is not unique!", proj.column.Name),
			})
		}

		if err := sink(types.CellEvent{ColumnValue: &cv}); err != nil {
			return err
		}
	}
	return nil
}

// uniqueViolations precomputes, for every unique physically-backed
// column, the set of non-trashed row ids sharing a duplicated value
// (spec.md §4.6 "uniqueness-witness precomputation"). Composite
// primary-key uniqueness across multiple columns is left unchecked,
// matching the source implementation (see DESIGN.md).
func uniqueViolations(tx *storage.Tx, tableID int64, plan queryPlan) (map[int64]map[int64]bool, error) {
	cols, err := schema.ColumnsByTable(tx, tableID, false)
	if err != nil {
		return nil, err
	}

	violations := map[int64]map[int64]bool{}
	table := sqlite.TableName(tableID)
	for _, c := range cols {
		if !c.Unique {
			continue
		}
		ct := coltype.Decode(c.TypeOID, c.Mode)
		if !ct.HasPhysicalColumn() {
			continue
		}
		physical := sqlite.ColumnName(c.ID)

		dups := map[int64]bool{}
		err := tx.Stream(
			"SELECT OID FROM "+table+" WHERE TRASH = 0 AND "+physical+" IN "+
				"(SELECT "+physical+" FROM "+table+" WHERE TRASH = 0 AND "+physical+" IS NOT NULL GROUP BY "+physical+" HAVING COUNT(*) > 1)",
			nil,
			func(r *sql.Rows) error {
				var oid int64
				if err := r.Scan(&oid); err != nil {
					return err
				}
				dups[oid] = true
				return nil
			},
		)
		if err != nil {
			return nil, fmt.Errorf("compute uniqueness witness for column %d: %w", c.ID, err)
		}
		if len(dups) > 0 {
			violations[c.ID] = dups
		}
	}
	return violations, nil
}
