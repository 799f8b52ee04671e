package journal

import (
	"fmt"

	"github.com/dyntab/dyntab/internal/data"
	"github.com/dyntab/dyntab/internal/dyerr"
	"github.com/dyntab/dyntab/internal/schema"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/types"
)

// apply dispatches action to the matching C4/C5/C6 operation and
// returns its inverse action plus any produced ids (spec.md §4.7).
//
// Delete/Restore pairs always mean the soft trash-flag toggle — the
// journal never calls the hard physical delete helpers in schema/data,
// since there is no ActionKind whose inverse could undo an
// irreversible purge. Emptying the trash is an administrative
// operation outside the undo system.
func apply(tx *storage.Tx, action types.Action) (types.Action, Result, error) {
	switch action.Kind {

	case types.ActionCreateTable:
		id, err := schema.CreateTable(tx, action.TableName)
		if err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionDeleteTable, TableID: id}, Result{TableID: id}, nil

	case types.ActionDeleteTable:
		if err := schema.TrashTable(tx, action.TableID); err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionRestoreDeletedTable, TableID: action.TableID}, Result{TableID: action.TableID}, nil

	case types.ActionRestoreDeletedTable:
		if err := schema.RestoreTable(tx, action.TableID); err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionDeleteTable, TableID: action.TableID}, Result{TableID: action.TableID}, nil

	case types.ActionCreateTableColumn:
		id, err := schema.CreateColumn(tx, action.TableID, action.ColumnSpec)
		if err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionDeleteTableColumn, TableID: action.TableID, ColumnID: id},
			Result{TableID: action.TableID, ColumnID: id}, nil

	case types.ActionDeleteTableColumn:
		if err := schema.TrashColumn(tx, action.TableID, action.ColumnID); err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionRestoreDeletedTableColumn, TableID: action.TableID, ColumnID: action.ColumnID},
			Result{TableID: action.TableID, ColumnID: action.ColumnID}, nil

	case types.ActionRestoreDeletedTableColumn:
		if err := schema.RestoreColumn(tx, action.TableID, action.ColumnID); err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionDeleteTableColumn, TableID: action.TableID, ColumnID: action.ColumnID},
			Result{TableID: action.TableID, ColumnID: action.ColumnID}, nil

	case types.ActionEditTableColumnMetadata:
		cloneID, err := schema.EditColumn(tx, action.TableID, action.ColumnID, action.ColumnSpec)
		if err != nil {
			return types.Action{}, Result{}, err
		}
		inverse := types.Action{
			Kind: types.ActionRestoreEditedTableColumnMetadata,
			TableID: action.TableID, ColumnID: action.ColumnID, PriorCloneID: cloneID,
		}
		return inverse, Result{TableID: action.TableID, ColumnID: action.ColumnID, CloneID: cloneID}, nil

	case types.ActionRestoreEditedTableColumnMetadata:
		newCloneID, err := schema.RestoreEditedColumnMetadata(tx, action.TableID, action.ColumnID, action.PriorCloneID)
		if err != nil {
			return types.Action{}, Result{}, err
		}
		inverse := types.Action{
			Kind: types.ActionRestoreEditedTableColumnMetadata,
			TableID: action.TableID, ColumnID: action.ColumnID, PriorCloneID: newCloneID,
		}
		return inverse, Result{TableID: action.TableID, ColumnID: action.ColumnID, CloneID: newCloneID}, nil

	case types.ActionEditTableColumnDropdownValues:
		prior, err := schema.GetDropdownValues(tx, action.ColumnID)
		if err != nil {
			return types.Action{}, Result{}, err
		}
		priorRaw := make([]string, len(prior))
		for i, v := range prior {
			priorRaw[i] = v.DisplayValue
		}
		if err := schema.SetDropdownValues(tx, action.ColumnID, action.DropdownValues); err != nil {
			return types.Action{}, Result{}, err
		}
		inverse := types.Action{
			Kind: types.ActionEditTableColumnDropdownValues,
			TableID: action.TableID, ColumnID: action.ColumnID, DropdownValues: priorRaw,
		}
		return inverse, Result{TableID: action.TableID, ColumnID: action.ColumnID}, nil

	case types.ActionPushTableRow:
		id, err := data.PushRow(tx, action.TableID)
		if err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionDeleteTableRow, TableID: action.TableID, RowID: id},
			Result{TableID: action.TableID, RowID: id}, nil

	case types.ActionInsertTableRow:
		id, err := data.InsertRow(tx, action.TableID, action.RowID)
		if err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionDeleteTableRow, TableID: action.TableID, RowID: id},
			Result{TableID: action.TableID, RowID: id}, nil

	case types.ActionDeleteTableRow:
		if err := data.TrashRow(tx, action.TableID, action.RowID); err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionRestoreDeletedTableRow, TableID: action.TableID, RowID: action.RowID},
			Result{TableID: action.TableID, RowID: action.RowID}, nil

	case types.ActionRestoreDeletedTableRow:
		if err := data.RestoreRow(tx, action.TableID, action.RowID); err != nil {
			return types.Action{}, Result{}, err
		}
		return types.Action{Kind: types.ActionDeleteTableRow, TableID: action.TableID, RowID: action.RowID},
			Result{TableID: action.TableID, RowID: action.RowID}, nil

	case types.ActionUpdateTableCellStoredAsPrimitiveValue:
		prior, err := data.TryUpdatePrimitive(tx, action.TableID, action.RowID, action.ColumnID, action.Value)
		if err != nil {
			return types.Action{}, Result{}, err
		}
		inverse := types.Action{
			Kind: types.ActionUpdateTableCellStoredAsPrimitiveValue,
			TableID: action.TableID, RowID: action.RowID, ColumnID: action.ColumnID, Value: prior,
		}
		return inverse, Result{TableID: action.TableID, RowID: action.RowID, ColumnID: action.ColumnID}, nil
	}

	return types.Action{}, Result{}, fmt.Errorf("%w: unknown action kind %v", dyerr.DomainRejected, action.Kind)
}
