package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dyntab/dyntab/internal/types"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Create, list, and inspect tables",
}

var tableCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new table",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()

		result, err := e.Execute(backgroundCtx, types.Action{Kind: types.ActionCreateTable, TableName: args[0]})
		if err != nil {
			exitErr(err)
		}
		fmt.Printf("created table %d (%s)\n", result.TableID, args[0])
	},
}

var tableListCmd = &cobra.Command{
	Use:   "list",
	Short: "List non-trashed tables",
	Run: func(cmd *cobra.Command, args []string) {
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()

		tables, err := e.ListTables(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		for _, t := range tables {
			fmt.Printf("%d\t%s\n", t.OID, t.Name)
		}
	},
}

var tableDescribeCmd = &cobra.Command{
	Use:   "describe TABLE_ID",
	Short: "Dump a table's columns as YAML",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tableID := mustParseID(args[0])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()

		cols, err := e.DescribeTable(backgroundCtx, tableID)
		if err != nil {
			exitErr(err)
		}
		out, err := yaml.Marshal(cols)
		if err != nil {
			exitErr(err)
		}
		fmt.Print(string(out))
	},
}

var tableTrashCmd = &cobra.Command{
	Use:   "trash TABLE_ID",
	Short: "Soft-delete a table (undoable)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tableID := mustParseID(args[0])
		runTableIDAction(types.ActionDeleteTable, tableID)
	},
}

var tableRestoreCmd = &cobra.Command{
	Use:   "restore TABLE_ID",
	Short: "Restore a trashed table (undoable)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tableID := mustParseID(args[0])
		runTableIDAction(types.ActionRestoreDeletedTable, tableID)
	},
}

var tablePurgeCmd = &cobra.Command{
	Use:   "purge TABLE_ID",
	Short: "Permanently delete a trashed table (not undoable)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tableID := mustParseID(args[0])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if err := e.PurgeTable(backgroundCtx, tableID); err != nil {
			exitErr(err)
		}
		fmt.Printf("purged table %d\n", tableID)
	},
}

var tableInheritCmd = &cobra.Command{
	Use:   "inherit INHERITOR_ID MASTER_ID",
	Short: "Link inheritorID as a subtype of masterID",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		inheritorID, masterID := mustParseID(args[0]), mustParseID(args[1])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if err := e.AddInheritance(backgroundCtx, inheritorID, masterID); err != nil {
			exitErr(err)
		}
		fmt.Printf("table %d now inherits from table %d\n", inheritorID, masterID)
	},
}

var tableDisinheritCmd = &cobra.Command{
	Use:   "disinherit INHERITOR_ID MASTER_ID",
	Short: "Remove an inheritance edge",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		inheritorID, masterID := mustParseID(args[0]), mustParseID(args[1])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if err := e.RemoveInheritance(backgroundCtx, inheritorID, masterID); err != nil {
			exitErr(err)
		}
		fmt.Printf("table %d no longer inherits from table %d\n", inheritorID, masterID)
	},
}

var tableSortCmd = &cobra.Command{
	Use:   "sort TABLE_ID COLUMN_ID:asc|desc...",
	Short: "Set a table's data-read sort order",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tableID := mustParseID(args[0])
		var orderBys []types.OrderBy
		for i, spec := range args[1:] {
			columnID, ascending, err := parseSortSpec(spec)
			if err != nil {
				exitErr(err)
			}
			orderBys = append(orderBys, types.OrderBy{TableID: tableID, ColumnID: columnID, Ordering: i, Ascending: ascending})
		}
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if err := e.SetTableSort(backgroundCtx, tableID, orderBys); err != nil {
			exitErr(err)
		}
		fmt.Println("sort order updated")
	},
}

func parseSortSpec(spec string) (columnID int64, ascending bool, err error) {
	idPart, dirPart, hasDir := cutLast(spec, ':')
	id, perr := strconv.ParseInt(idPart, 10, 64)
	if perr != nil {
		return 0, false, fmt.Errorf("invalid column id in sort spec %q: %w", spec, perr)
	}
	if !hasDir || dirPart == "asc" {
		return id, true, nil
	}
	if dirPart == "desc" {
		return id, false, nil
	}
	return 0, false, fmt.Errorf("invalid sort direction %q, want asc or desc", dirPart)
}

func cutLast(s string, sep byte) (before, after string, found bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func runTableIDAction(kind types.ActionKind, tableID int64) {
	e, err := openEngine(backgroundCtx)
	if err != nil {
		exitErr(err)
	}
	defer e.Close()
	if _, err := e.Execute(backgroundCtx, types.Action{Kind: kind, TableID: tableID}); err != nil {
		exitErr(err)
	}
	fmt.Println("ok")
}

func mustParseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		exitErr(fmt.Errorf("invalid id %q: %w", s, err))
	}
	return id
}

func init() {
	tableCmd.AddCommand(tableCreateCmd, tableListCmd, tableDescribeCmd, tableTrashCmd, tableRestoreCmd,
		tablePurgeCmd, tableInheritCmd, tableDisinheritCmd, tableSortCmd)
	rootCmd.AddCommand(tableCmd)
}
