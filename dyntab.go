// Package dyntab provides a minimal public API for embedding dyntab's
// storage engine in other Go programs.
//
// Most extensions should go through the cmd/dyntab CLI. This package
// exports only the essential types and functions for Go-based
// extensions that want to drive the engine programmatically.
package dyntab

import (
	"context"
	"log/slog"

	"github.com/dyntab/dyntab/internal/data"
	"github.com/dyntab/dyntab/internal/engine"
	"github.com/dyntab/dyntab/internal/journal"
	"github.com/dyntab/dyntab/internal/notify"
	"github.com/dyntab/dyntab/internal/types"
)

// Engine is the top-level handle for one open database.
type Engine = engine.Engine

// Open opens (creating if necessary) the database at path and
// bootstraps its meta-schema.
func Open(ctx context.Context, path string, log *slog.Logger) (*Engine, error) {
	return engine.Open(ctx, path, log)
}

// Bus is the outbound notification channel (C8).
type Bus = notify.Bus

// ActionResult carries the ids an executed action produced.
type ActionResult = journal.Result

// Core vocabulary re-exported from internal/types.
type (
	Action            = types.Action
	ActionKind        = types.ActionKind
	Column            = types.Column
	ColumnSpec        = types.ColumnSpec
	DropdownValue     = types.DropdownValue
	Table             = types.Table
	TableListItem     = types.TableListItem
	OrderBy           = types.OrderBy
	Inheritance       = types.Inheritance
	Primitive         = types.Primitive
	CellEvent         = types.CellEvent
	ColumnValue       = types.ColumnValue
	RowStart          = types.RowStart
	RowExists         = types.RowExists
	FailedValidation  = types.FailedValidation
	Sink              = types.Sink
)

// ActionKind constants.
const (
	ActionCreateTable                      = types.ActionCreateTable
	ActionDeleteTable                      = types.ActionDeleteTable
	ActionRestoreDeletedTable              = types.ActionRestoreDeletedTable
	ActionCreateTableColumn                = types.ActionCreateTableColumn
	ActionDeleteTableColumn                = types.ActionDeleteTableColumn
	ActionRestoreDeletedTableColumn        = types.ActionRestoreDeletedTableColumn
	ActionEditTableColumnMetadata          = types.ActionEditTableColumnMetadata
	ActionRestoreEditedTableColumnMetadata = types.ActionRestoreEditedTableColumnMetadata
	ActionEditTableColumnDropdownValues    = types.ActionEditTableColumnDropdownValues
	ActionPushTableRow                     = types.ActionPushTableRow
	ActionInsertTableRow                   = types.ActionInsertTableRow
	ActionDeleteTableRow                   = types.ActionDeleteTableRow
	ActionRestoreDeletedTableRow           = types.ActionRestoreDeletedTableRow
	ActionUpdateTableCellStoredAsPrimitiveValue = types.ActionUpdateTableCellStoredAsPrimitiveValue
)

// Primitive constants.
const (
	PrimitiveAny       = types.PrimitiveAny
	PrimitiveBool      = types.PrimitiveBool
	PrimitiveInt       = types.PrimitiveInt
	PrimitiveNumber    = types.PrimitiveNumber
	PrimitiveDate      = types.PrimitiveDate
	PrimitiveTimestamp = types.PrimitiveTimestamp
	PrimitiveText      = types.PrimitiveText
	PrimitiveJSON      = types.PrimitiveJSON
	PrimitiveFile      = types.PrimitiveFile
	PrimitiveImage     = types.PrimitiveImage
)

// Notification event kinds.
const (
	TableListChanged = notify.TableListChanged
	TableDataChanged = notify.TableDataChanged
	TableRowChanged  = notify.TableRowChanged
)

// This blank use keeps internal/data's package import live even if no
// symbol from it is otherwise re-exported.
var _ = data.RowExists
