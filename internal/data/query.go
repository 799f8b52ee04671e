// Package data implements the row/data subsystem (C6, spec.md §4.6):
// row push/insert/trash/restore/delete, primitive coercion, the
// data-read query assembly (every non-trashed row; no paging), and
// cell streaming.
package data

import (
	"fmt"
	"strings"

	"github.com/dyntab/dyntab/internal/coltype"
	"github.com/dyntab/dyntab/internal/schema"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

// projection describes one emitted cell column: its meta row, the
// table it is physically owned by (tableID itself, or an inherited
// master's id per spec.md §4.6), and the SQL expressions used to
// fetch its display/true values.
type projection struct {
	column     types.Column
	ownerTable int64
	ct         coltype.ColumnType
	displayCol string // result-set column alias for the display value
	trueCol    string // result-set column alias for the true value, "" if none
}

// queryPlan is the assembled data-read query (spec.md §4.6 "Data-read
// query assembly").
type queryPlan struct {
	sql         string
	projections []projection
	masterAlias map[int64]string // masterTableID -> alias, for m<M>_OID emission
}

// buildQuery composes the SELECT statement projecting every active
// column of tableID, joined through inherited masters, with row-number
// and optional sort override (spec.md §4.6).
func buildQuery(tx *storage.Tx, tableID int64, rowFilter string, rowArgs []any) (queryPlan, error) {
	cols, err := schema.ColumnsByTable(tx, tableID, false)
	if err != nil {
		return queryPlan{}, err
	}
	masters, err := schema.Masters(tx, tableID)
	if err != nil {
		return queryPlan{}, err
	}

	plan := queryPlan{masterAlias: map[int64]string{}}
	base := sqlite.TableName(tableID)

	var selectExprs []string
	var joins []string
	var idx int

	emit := func(col types.Column, ownerTable int64, ownerAlias string) error {
		ct := coltype.Decode(col.TypeOID, col.Mode)
		idx++
		displayAlias := fmt.Sprintf("disp_%d", idx)
		physical := ownerAlias + "." + sqlite.ColumnName(col.ID)

		var displayExpr string
		var trueAlias string

		switch ct.Variant {
		case coltype.VariantPrimitive:
			displayExpr = primitiveDisplayExpr(ct.Primitive, physical)
		case coltype.VariantSingleSelect:
			joinAlias := fmt.Sprintf("v%d", col.ID)
			joins = append(joins, fmt.Sprintf("LEFT JOIN %s %s ON %s.OID = %s",
				sqlite.TableName(ct.TargetID), joinAlias, joinAlias, physical))
			displayExpr = joinAlias + ".VALUE"
			trueAlias = fmt.Sprintf("true_%d", idx)
			selectExprs = append(selectExprs, fmt.Sprintf("%s AS %s", physical, trueAlias))
		case coltype.VariantMultiSelect:
			link := sqlite.MultiselectLinkName(ct.TargetID)
			values := sqlite.TableName(ct.TargetID)
			displayExpr = fmt.Sprintf(
				"(SELECT '[' || GROUP_CONCAT(vv.VALUE) || ']' FROM %s lk JOIN %s vv ON vv.OID = lk.VALUE_ID WHERE lk.ROW_ID = %s.OID AND vv.TRASH = 0)",
				link, values, ownerAlias)
			trueAlias = fmt.Sprintf("true_%d", idx)
			selectExprs = append(selectExprs, fmt.Sprintf(
				"(SELECT GROUP_CONCAT(vv.OID) FROM %s lk JOIN %s vv ON vv.OID = lk.VALUE_ID WHERE lk.ROW_ID = %s.OID) AS %s",
				link, values, ownerAlias, trueAlias))
		case coltype.VariantReference, coltype.VariantChildObject:
			joinAlias := fmt.Sprintf("r%d", col.ID)
			joins = append(joins, fmt.Sprintf("LEFT JOIN %s %s ON %s.OID = %s",
				sqlite.SurrogateName(ct.TargetID), joinAlias, joinAlias, physical))
			displayExpr = fmt.Sprintf("CASE WHEN %s IS NOT NULL AND %s.OID IS NULL THEN '— DELETED —' ELSE %s.DISPLAY_VALUE END",
				physical, joinAlias, joinAlias)
			trueAlias = fmt.Sprintf("true_%d", idx)
			selectExprs = append(selectExprs, fmt.Sprintf("%s AS %s", physical, trueAlias))
		case coltype.VariantChildTable:
			childTable := sqlite.TableName(ct.TargetID)
			childSurrogate := sqlite.SurrogateName(ct.TargetID)
			displayExpr = fmt.Sprintf(
				"(SELECT '[' || GROUP_CONCAT(cs.DISPLAY_VALUE) || ']' FROM %s ct JOIN %s cs ON cs.OID = ct.OID WHERE ct.PARENT_OID = %s.OID AND ct.TRASH = 0)",
				childTable, childSurrogate, ownerAlias)
		}

		selectExprs = append(selectExprs, fmt.Sprintf("%s AS %s", displayExpr, displayAlias))

		plan.projections = append(plan.projections, projection{
			column: col, ownerTable: ownerTable, ct: ct,
			displayCol: displayAlias, trueCol: trueAlias,
		})
		return nil
	}

	for _, m := range masters {
		alias := sqlite.MasterAlias(m)
		plan.masterAlias[m] = alias
		joins = append(joins, fmt.Sprintf("INNER JOIN %s %s ON %s.OID = t.%s",
			sqlite.TableName(m), alias, alias, sqlite.MasterColumnName(m)))

		masterCols, err := schema.ColumnsByTable(tx, m, false)
		if err != nil {
			return queryPlan{}, err
		}
		for _, c := range masterCols {
			if err := emit(c, m, alias); err != nil {
				return queryPlan{}, err
			}
		}
	}

	for _, c := range cols {
		if err := emit(c, tableID, "t"); err != nil {
			return queryPlan{}, err
		}
	}

	orderBy, err := schema.GetTableSort(tx, tableID)
	if err != nil {
		return queryPlan{}, err
	}
	orderClause := "ORDER BY t.OID"
	if len(orderBy) > 0 {
		var parts []string
		for _, ob := range orderBy {
			dir := "ASC"
			if !ob.Ascending {
				dir = "DESC"
			}
			parts = append(parts, fmt.Sprintf("%s %s", sqlite.ColumnName(ob.ColumnID), dir))
		}
		orderClause = "ORDER BY " + strings.Join(parts, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT t.OID AS ROW_OID, t.TRASH AS ROW_TRASH, ROW_NUMBER() OVER (" + orderClause + ") AS ROW_INDEX")
	if len(selectExprs) > 0 {
		b.WriteString(", ")
		b.WriteString(strings.Join(selectExprs, ", "))
	}
	fmt.Fprintf(&b, " FROM %s t", base)
	for _, j := range joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if rowFilter != "" {
		b.WriteString(" WHERE " + rowFilter)
	}

	plan.sql = b.String()
	return plan, nil
}

func primitiveDisplayExpr(p types.Primitive, physical string) string {
	switch p {
	case types.PrimitiveBool:
		return fmt.Sprintf("CASE WHEN %s = 1 THEN 'True' WHEN %s = 0 THEN 'False' ELSE NULL END", physical, physical)
	case types.PrimitiveInt, types.PrimitiveNumber:
		return fmt.Sprintf("CAST(%s AS TEXT)", physical)
	case types.PrimitiveDate:
		return fmt.Sprintf("date(%s)", physical)
	case types.PrimitiveTimestamp:
		return fmt.Sprintf("(replace(datetime(%s), ' ', 'T') || 'Z')", physical)
	case types.PrimitiveFile:
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE 'File' END", physical)
	case types.PrimitiveImage:
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE 'Thumbnail' END", physical)
	default:
		return physical
	}
}
