package schema

import (
	"fmt"
	"strings"

	"github.com/dyntab/dyntab/internal/coltype"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

// buildSurrogateSQL composes the SELECT body for
// TABLE_<tableID>_SURROGATE (spec.md §4.4 "Surrogate view"). The
// boundary rules (zero/one/many primary-key columns) take precedence
// over the looser "same row as a JSON object" framing in the
// introductory paragraph, since they are the only place the spec
// gives an unambiguous, testable rule (see DESIGN.md).
func buildSurrogateSQL(tx *storage.Tx, tableID int64) (string, error) {
	cols, err := ColumnsByTable(tx, tableID, false)
	if err != nil {
		return "", err
	}

	var pk []types.Column
	for _, c := range cols {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}

	base := sqlite.TableName(tableID)
	var joins []string
	var keyValuePairs []string // "'name', expr" pairs for json_object
	var soleDisplay string

	for _, c := range pk {
		disp, jsonVal, join, err := columnExprs(c)
		if err != nil {
			return "", err
		}
		joins = append(joins, join...)
		keyValuePairs = append(keyValuePairs, fmt.Sprintf("%s, %s", sqlQuoteLiteral(c.Name), jsonVal))
		if len(pk) == 1 {
			soleDisplay = disp
		}
	}

	var displayExpr, jsonExpr string
	switch len(pk) {
	case 0:
		displayExpr = "'— NO PRIMARY KEY —'"
		jsonExpr = "'{}'"
	case 1:
		displayExpr = soleDisplay
		jsonExpr = "json_object(" + strings.Join(keyValuePairs, ", ") + ")"
	default:
		jsonExpr = "json_object(" + strings.Join(keyValuePairs, ", ") + ")"
		displayExpr = jsonExpr
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT t.OID AS OID, ")
	fmt.Fprintf(&b, "CASE WHEN t.TRASH = 1 THEN '— DELETED —' ELSE (%s) END AS DISPLAY_VALUE, ", displayExpr)
	fmt.Fprintf(&b, "CASE WHEN t.TRASH = 1 THEN NULL ELSE (%s) END AS JSON_DISPLAY_VALUE ", jsonExpr)
	fmt.Fprintf(&b, "FROM %s t", base)
	for _, j := range joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	return b.String(), nil
}

// columnExprs returns the display expression, the JSON-object value
// expression, and any LEFT JOIN clauses col's projection needs (spec.md
// §4.4 "Per-column projection rules").
func columnExprs(col types.Column) (display, jsonValue string, joins []string, err error) {
	ct := coltype.Decode(col.TypeOID, col.Mode)
	physical := "t." + sqlite.ColumnName(col.ID)

	switch ct.Variant {
	case coltype.VariantPrimitive:
		return primitiveExprs(ct.Primitive, physical)

	case coltype.VariantSingleSelect:
		alias := fmt.Sprintf("v%d", col.ID)
		join := fmt.Sprintf("LEFT JOIN %s %s ON %s.OID = %s", sqlite.TableName(ct.TargetID), alias, alias, physical)
		expr := alias + ".VALUE"
		return expr, expr, []string{join}, nil

	case coltype.VariantMultiSelect:
		link := sqlite.MultiselectLinkName(ct.TargetID)
		values := sqlite.TableName(ct.TargetID)
		display := fmt.Sprintf(
			"(SELECT '[' || GROUP_CONCAT(vv.VALUE) || ']' FROM %s lk JOIN %s vv ON vv.OID = lk.VALUE_ID WHERE lk.ROW_ID = t.OID AND vv.TRASH = 0)",
			link, values,
		)
		jsonVal := fmt.Sprintf(
			"(SELECT json_group_array(vv.VALUE) FROM %s lk JOIN %s vv ON vv.OID = lk.VALUE_ID WHERE lk.ROW_ID = t.OID AND vv.TRASH = 0)",
			link, values,
		)
		return display, jsonVal, nil, nil

	case coltype.VariantReference, coltype.VariantChildObject:
		alias := fmt.Sprintf("r%d", col.ID)
		join := fmt.Sprintf("LEFT JOIN %s %s ON %s.OID = %s", sqlite.SurrogateName(ct.TargetID), alias, alias, physical)
		expr := fmt.Sprintf("CASE WHEN %s IS NOT NULL AND %s.OID IS NULL THEN '— DELETED —' ELSE %s.DISPLAY_VALUE END",
			physical, alias, alias)
		return expr, expr, []string{join}, nil

	case coltype.VariantChildTable:
		childTable := sqlite.TableName(ct.TargetID)
		childSurrogate := sqlite.SurrogateName(ct.TargetID)
		display := fmt.Sprintf(
			"(SELECT '[' || GROUP_CONCAT(cs.DISPLAY_VALUE) || ']' FROM %s ct JOIN %s cs ON cs.OID = ct.OID WHERE ct.PARENT_OID = t.OID AND ct.TRASH = 0)",
			childTable, childSurrogate,
		)
		jsonVal := fmt.Sprintf(
			"(SELECT json_group_array(cs.DISPLAY_VALUE) FROM %s ct JOIN %s cs ON cs.OID = ct.OID WHERE ct.PARENT_OID = t.OID AND ct.TRASH = 0)",
			childTable, childSurrogate,
		)
		return display, jsonVal, nil, nil
	}

	return "NULL", "NULL", nil, fmt.Errorf("unhandled column-type variant %d", ct.Variant)
}

// primitiveExprs renders the display/JSON expressions for a primitive
// column (spec.md §4.4 "Primitive:" bullet).
func primitiveExprs(p types.Primitive, physical string) (display, jsonValue string, joins []string, err error) {
	switch p {
	case types.PrimitiveBool:
		display = fmt.Sprintf("CASE WHEN %s = 1 THEN 'True' WHEN %s = 0 THEN 'False' ELSE NULL END", physical, physical)
		jsonValue = fmt.Sprintf("CASE WHEN %s = 1 THEN json('true') WHEN %s = 0 THEN json('false') ELSE NULL END", physical, physical)
	case types.PrimitiveInt, types.PrimitiveNumber:
		display = fmt.Sprintf("CAST(%s AS TEXT)", physical)
		jsonValue = physical
	case types.PrimitiveDate:
		display = fmt.Sprintf("date(%s)", physical)
		jsonValue = display
	case types.PrimitiveTimestamp:
		display = fmt.Sprintf("(replace(datetime(%s), ' ', 'T') || 'Z')", physical)
		jsonValue = display
	case types.PrimitiveJSON:
		display = physical
		jsonValue = fmt.Sprintf("json(%s)", physical)
	case types.PrimitiveFile:
		display = fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE 'File' END", physical)
		jsonValue = fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE json('{}') END", physical)
	case types.PrimitiveImage:
		display = fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE 'Thumbnail' END", physical)
		jsonValue = fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE json('{}') END", physical)
	default: // Any, Text
		display = physical
		jsonValue = physical
	}
	return display, jsonValue, nil, nil
}

// sqlQuoteLiteral renders s as a single-quoted SQL text literal.
func sqlQuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
