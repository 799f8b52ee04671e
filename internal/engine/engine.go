// Package engine wires C1-C8 behind the process-wide mutex spec.md §5
// requires: one logical backend session per open database, serialized
// so every inbound command runs as if the engine were single-threaded
// even when the host process calls it from multiple goroutines.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dyntab/dyntab/internal/data"
	"github.com/dyntab/dyntab/internal/journal"
	"github.com/dyntab/dyntab/internal/notify"
	"github.com/dyntab/dyntab/internal/schema"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/storage/sqlite"
	"github.com/dyntab/dyntab/internal/types"
)

// Engine is the top-level handle a CLI or embedding program opens once
// per backing file (spec.md §5, §6).
type Engine struct {
	mu      sync.Mutex
	storage *storage.Engine
	journal *journal.Journal
	bus     *notify.Bus
	log     *slog.Logger
}

// Open opens (creating if necessary) the database at path, bootstraps
// the meta-schema, and returns a ready Engine (spec.md §4.2 "Init").
func Open(ctx context.Context, path string, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	st, err := storage.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := sqlite.Bootstrap(ctx, st); err != nil {
		_ = st.Close()
		return nil, err
	}
	log.Info("engine opened", "path", path)
	return &Engine{storage: st, journal: journal.New(), bus: notify.NewBus(), log: log}, nil
}

// Close releases the backing file and its single-writer lock.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log.Info("engine closed", "path", e.storage.Path())
	return e.storage.Close()
}

// Notifications exposes the outbound bus for in-process subscribers.
// The `watch` CLI command does not subscribe to it; it follows writes
// to the backing file instead.
func (e *Engine) Notifications() *notify.Bus {
	return e.bus
}

// Execute runs action under the process-wide mutex and, on success,
// publishes the matching C8 notification (spec.md §4.6 "Emission":
// "every successful action emits... the appropriate event").
func (e *Engine) Execute(ctx context.Context, action types.Action) (journal.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result journal.Result
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		result, err = e.journal.Execute(tx, action)
		return err
	})
	if err != nil {
		e.log.Error("execute failed", "kind", action.Kind.String(), "error", err)
		return journal.Result{}, err
	}
	e.log.Info("execute", "kind", action.Kind.String(), "table", result.TableID, "row", result.RowID, "column", result.ColumnID)
	e.publish(action.Kind, result)
	return result, nil
}

// Undo reverts the most recently executed action (spec.md §4.7).
func (e *Engine) Undo(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return e.journal.Undo(tx)
	})
	if err != nil {
		e.log.Error("undo failed", "error", err)
		return err
	}
	e.log.Info("undo")
	e.bus.PublishTableListChanged()
	return nil
}

// Redo re-applies the most recently undone action (spec.md §4.7).
func (e *Engine) Redo(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return e.journal.Redo(tx)
	})
	if err != nil {
		e.log.Error("redo failed", "error", err)
		return err
	}
	e.log.Info("redo")
	e.bus.PublishTableListChanged()
	return nil
}

// publish emits the C8 event matching an action kind's affected scope.
func (e *Engine) publish(kind types.ActionKind, result journal.Result) {
	switch kind {
	case types.ActionCreateTable, types.ActionDeleteTable, types.ActionRestoreDeletedTable:
		e.bus.PublishTableListChanged()
	case types.ActionCreateTableColumn, types.ActionDeleteTableColumn, types.ActionRestoreDeletedTableColumn,
		types.ActionEditTableColumnMetadata, types.ActionRestoreEditedTableColumnMetadata,
		types.ActionEditTableColumnDropdownValues:
		e.bus.PublishTableDataChanged(result.TableID)
	case types.ActionPushTableRow, types.ActionInsertTableRow, types.ActionDeleteTableRow, types.ActionRestoreDeletedTableRow:
		e.bus.PublishTableRowChanged(result.TableID, result.RowID)
	case types.ActionUpdateTableCellStoredAsPrimitiveValue:
		e.bus.PublishTableRowChanged(result.TableID, result.RowID)
	}
}

// ReadTableData streams every row of tableID to sink (spec.md §4.6
// "sendTableData", §6). Reads do not go through the journal: they are
// not undoable actions.
func (e *Engine) ReadTableData(ctx context.Context, tableID int64, sink types.Sink) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return data.SendTableData(tx, tableID, sink)
	})
}

// ReadTableRow streams a single row (spec.md §4.6 "sendTableRow").
func (e *Engine) ReadTableRow(ctx context.Context, tableID, rowID int64, sink types.Sink) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return data.SendTableRow(tx, tableID, rowID, sink)
	})
}

// ListTables returns every non-trashed table (spec.md §4.4).
func (e *Engine) ListTables(ctx context.Context) ([]types.TableListItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []types.TableListItem
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		out, err = schema.GetTableList(tx)
		return err
	})
	return out, err
}

// DescribeTable returns tableID's columns, for `dyntab table describe`.
func (e *Engine) DescribeTable(ctx context.Context, tableID int64) ([]types.Column, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []types.Column
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		out, err = schema.ColumnsByTable(tx, tableID, false)
		return err
	})
	return out, err
}

// GetDropdownValues exposes schema.GetDropdownValues through the
// mutex, for read-only CLI inspection outside an Execute.
func (e *Engine) GetDropdownValues(ctx context.Context, columnID int64) ([]types.DropdownValue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []types.DropdownValue
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		var err error
		out, err = schema.GetDropdownValues(tx, columnID)
		return err
	})
	return out, err
}

// SetTableSort exposes schema.SetTableSort (not itself undoable: sort
// order is presentation metadata, not part of the action journal).
func (e *Engine) SetTableSort(ctx context.Context, tableID int64, orderBys []types.OrderBy) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return schema.SetTableSort(tx, tableID, orderBys)
	})
}

// AddInheritance/RemoveInheritance expose the table-inheritance
// operations (SPEC_FULL's supplemented feature); not run through the
// journal since undoing a cycle-checked structural edge is outside
// spec.md's closed Action set.
func (e *Engine) AddInheritance(ctx context.Context, inheritorID, masterID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return schema.AddInheritance(tx, inheritorID, masterID)
	})
	if err == nil {
		e.bus.PublishTableListChanged()
	}
	return err
}

func (e *Engine) RemoveInheritance(ctx context.Context, inheritorID, masterID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return schema.RemoveInheritance(tx, inheritorID, masterID)
	})
	if err == nil {
		e.bus.PublishTableListChanged()
	}
	return err
}

// PurgeTable physically deletes a trashed table, bypassing the
// journal (administrative operation, not undoable; see
// internal/journal's dispatch doc comment).
func (e *Engine) PurgeTable(ctx context.Context, tableID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return schema.DeleteTable(tx, tableID)
	})
	if err != nil {
		return fmt.Errorf("purge table %d: %w", tableID, err)
	}
	e.bus.PublishTableListChanged()
	return nil
}

// PurgeColumn physically deletes a trashed column, bypassing the
// journal.
func (e *Engine) PurgeColumn(ctx context.Context, tableID, columnID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return schema.DeleteColumn(tx, columnID)
	})
	if err != nil {
		return fmt.Errorf("purge column %d: %w", columnID, err)
	}
	e.bus.PublishTableDataChanged(tableID)
	return nil
}

// PurgeRow physically deletes a trashed row, bypassing the journal.
func (e *Engine) PurgeRow(ctx context.Context, tableID, rowID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.storage.RunInTransaction(ctx, func(tx *storage.Tx) error {
		return data.DeleteRow(tx, tableID, rowID)
	})
	if err != nil {
		return fmt.Errorf("purge row %d: %w", rowID, err)
	}
	e.bus.PublishTableRowChanged(tableID, rowID)
	return nil
}
