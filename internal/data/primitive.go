package data

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/dyntab/dyntab/internal/coltype"
	"github.com/dyntab/dyntab/internal/dyerr"
	"github.com/dyntab/dyntab/internal/schema"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

// TryUpdatePrimitive writes newText into a single physically-backed
// cell, coercing it through the column's type (spec.md §4.6
// "tryUpdatePrimitive"). newText == nil clears the cell to NULL. On
// success it returns the cell's prior value rendered as text, so the
// caller (C7) can build this action's inverse.
//
// Columns with no physical storage (MultiSelect, ChildTable) are
// rejected with dyerr.DomainRejected; they are edited through
// SetDropdownValues/child-row operations instead.
func TryUpdatePrimitive(tx *storage.Tx, tableID, rowID, columnID int64, newText *string) (*string, error) {
	col, err := schema.GetColumn(tx, columnID)
	if err != nil {
		return nil, err
	}
	ct := coltype.Decode(col.TypeOID, col.Mode)
	if !ct.HasPhysicalColumn() {
		return nil, fmt.Errorf("%w: column %d (%s) has no physical cell to update", dyerr.DomainRejected, columnID, ct.String())
	}

	table := sqlite.TableName(tableID)
	physical := sqlite.ColumnName(columnID)

	var prior sql.NullString
	err = tx.QueryRow(func(r *sql.Row) error {
		return r.Scan(&prior)
	}, "SELECT CAST("+physical+" AS TEXT) FROM "+table+" WHERE OID = ?", rowID)
	if err != nil {
		return nil, err
	}
	var priorPtr *string
	if prior.Valid {
		priorPtr = &prior.String
	}

	stored, err := coerceStoredValue(ct, newText)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec("UPDATE "+table+" SET "+physical+" = ? WHERE OID = ?", stored, rowID); err != nil {
		return nil, fmt.Errorf("update cell table=%d row=%d column=%d: %w", tableID, rowID, columnID, err)
	}
	return priorPtr, nil
}

// coerceStoredValue validates and converts newText into the value that
// gets bound to the physical column, per column variant (spec.md §4.6,
// §4.3 primitive coercion rules).
func coerceStoredValue(ct coltype.ColumnType, newText *string) (any, error) {
	if newText == nil {
		return nil, nil
	}
	text := *newText

	switch ct.Variant {
	case coltype.VariantSingleSelect, coltype.VariantReference, coltype.VariantChildObject:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a valid target id: %v", dyerr.DomainRejected, text, err)
		}
		return id, nil

	case coltype.VariantPrimitive:
		switch ct.Primitive {
		case types.PrimitiveBool:
			b, err := strconv.ParseBool(text)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a valid bool: %v", dyerr.DomainRejected, text, err)
			}
			return boolToInt(b), nil
		case types.PrimitiveInt:
			v, err := sqlite.CoerceInteger(text)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", dyerr.InvalidInteger, err)
			}
			return v, nil
		case types.PrimitiveNumber:
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a valid number: %v", dyerr.InvalidInteger, text, err)
			}
			return v, nil
		case types.PrimitiveDate:
			v, err := sqlite.CoerceDate(text)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", dyerr.InvalidDate, err)
			}
			return v, nil
		case types.PrimitiveTimestamp:
			v, err := sqlite.CoerceTimestamp(text)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", dyerr.InvalidTimestamp, err)
			}
			return v, nil
		case types.PrimitiveJSON:
			if err := sqlite.ValidateJSON(text); err != nil {
				return nil, fmt.Errorf("%w: %v", dyerr.InvalidJSON, err)
			}
			return text, nil
		default: // Any, Text, File, Image all store the given text verbatim
			return text, nil
		}
	}

	return nil, fmt.Errorf("%w: column type %s has no primitive coercion", dyerr.DomainRejected, ct.String())
}
