package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/dyntab/dyntab/internal/types"
)

var rowCmd = &cobra.Command{
	Use:   "row",
	Short: "Push, edit, and read rows",
}

var rowPushCmd = &cobra.Command{
	Use:   "push TABLE_ID",
	Short: "Append a new row at the end of a table",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tableID := mustParseID(args[0])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		result, err := e.Execute(backgroundCtx, types.Action{Kind: types.ActionPushTableRow, TableID: tableID})
		if err != nil {
			exitErr(err)
		}
		fmt.Printf("pushed row %d\n", result.RowID)
	},
}

var rowInsertCmd = &cobra.Command{
	Use:   "insert TABLE_ID TARGET_OID",
	Short: "Insert a row before TARGET_OID, renumbering successors",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tableID, target := mustParseID(args[0]), mustParseID(args[1])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		result, err := e.Execute(backgroundCtx, types.Action{Kind: types.ActionInsertTableRow, TableID: tableID, RowID: target})
		if err != nil {
			exitErr(err)
		}
		fmt.Printf("inserted row %d\n", result.RowID)
	},
}

var rowTrashCmd = &cobra.Command{
	Use:   "trash TABLE_ID ROW_ID",
	Short: "Soft-delete a row (undoable)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runRowIDAction(types.ActionDeleteTableRow, mustParseID(args[0]), mustParseID(args[1]))
	},
}

var rowRestoreCmd = &cobra.Command{
	Use:   "restore TABLE_ID ROW_ID",
	Short: "Restore a trashed row (undoable)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runRowIDAction(types.ActionRestoreDeletedTableRow, mustParseID(args[0]), mustParseID(args[1]))
	},
}

var rowPurgeCmd = &cobra.Command{
	Use:   "purge TABLE_ID ROW_ID",
	Short: "Permanently delete a trashed row (not undoable)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tableID, rowID := mustParseID(args[0]), mustParseID(args[1])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if err := e.PurgeRow(backgroundCtx, tableID, rowID); err != nil {
			exitErr(err)
		}
		fmt.Printf("purged row %d\n", rowID)
	},
}

var rowSetCmd = &cobra.Command{
	Use:   "set-cell TABLE_ID ROW_ID COLUMN_ID [VALUE]",
	Short: "Update a primitive cell (omit VALUE to clear it, undoable)",
	Args:  cobra.RangeArgs(3, 4),
	Run: func(cmd *cobra.Command, args []string) {
		tableID, rowID, columnID := mustParseID(args[0]), mustParseID(args[1]), mustParseID(args[2])
		var value *string
		if len(args) == 4 {
			value = &args[3]
		}
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if _, err := e.Execute(backgroundCtx, types.Action{
			Kind: types.ActionUpdateTableCellStoredAsPrimitiveValue, TableID: tableID, RowID: rowID, ColumnID: columnID, Value: value,
		}); err != nil {
			exitErr(err)
		}
		fmt.Println("cell updated")
	},
}

var rowGetCmd = &cobra.Command{
	Use:   "get TABLE_ID ROW_ID",
	Short: "Print a single row as a JSON object",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tableID, rowID := mustParseID(args[0]), mustParseID(args[1])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()

		docs, err := streamRowsAsJSON(func(sink types.Sink) error {
			return e.ReadTableRow(backgroundCtx, tableID, rowID, sink)
		})
		if err != nil {
			exitErr(err)
		}
		for _, d := range docs {
			fmt.Println(d)
		}
	},
}

var rowDataCmd = &cobra.Command{
	Use:   "data TABLE_ID",
	Short: "Print every row of a table as newline-delimited JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tableID := mustParseID(args[0])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()

		docs, err := streamRowsAsJSON(func(sink types.Sink) error {
			return e.ReadTableData(backgroundCtx, tableID, sink)
		})
		if err != nil {
			exitErr(err)
		}
		for _, d := range docs {
			fmt.Println(d)
		}
	},
}

// streamRowsAsJSON drives read against a types.Sink, assembling each
// row's cells into a JSON document incrementally with sjson.Set as
// ColumnValue events arrive, rather than buffering a Go struct and
// marshaling it afterward. The cell stream is push-based and
// unbounded, so building the document field-by-field as events land
// avoids holding a parallel in-memory row representation.
func streamRowsAsJSON(read func(types.Sink) error) ([]string, error) {
	var docs []string
	var current string
	var rowMissing bool

	flush := func() {
		if current != "" {
			docs = append(docs, current)
		}
		current = ""
	}

	err := read(func(ev types.CellEvent) error {
		switch {
		case ev.RowStart != nil:
			flush()
			current = "{}"
			var err error
			current, err = sjson.Set(current, "rowOID", ev.RowStart.RowOID)
			if err != nil {
				return err
			}
			current, err = sjson.Set(current, "rowIndex", ev.RowStart.RowIndex)
			return err
		case ev.ColumnValue != nil:
			cv := ev.ColumnValue
			field := fmt.Sprintf("columns.col_%d", cv.ColumnOID)
			var err error
			if cv.DisplayValue == nil {
				current, err = sjson.Set(current, field, nil)
			} else {
				current, err = sjson.Set(current, field, *cv.DisplayValue)
			}
			if err != nil {
				return err
			}
			if len(cv.FailedValidations) > 0 {
				msgs := make([]string, len(cv.FailedValidations))
				for i, fv := range cv.FailedValidations {
					msgs[i] = fv.Description
				}
				current, err = sjson.Set(current, fmt.Sprintf("errors.col_%d", cv.ColumnOID), msgs)
			}
			return err
		case ev.RowExists != nil:
			rowMissing = !ev.RowExists.Exists
		}
		return nil
	})
	flush()
	if rowMissing {
		return nil, fmt.Errorf("row not found")
	}
	return docs, err
}

func init() {
	rowCmd.AddCommand(rowPushCmd, rowInsertCmd, rowTrashCmd, rowRestoreCmd, rowPurgeCmd, rowSetCmd, rowGetCmd, rowDataCmd)
	rootCmd.AddCommand(rowCmd)
}

func runRowIDAction(kind types.ActionKind, tableID, rowID int64) {
	e, err := openEngine(backgroundCtx)
	if err != nil {
		exitErr(err)
	}
	defer e.Close()
	if _, err := e.Execute(backgroundCtx, types.Action{Kind: kind, TableID: tableID, RowID: rowID}); err != nil {
		exitErr(err)
	}
	fmt.Println("ok")
}

