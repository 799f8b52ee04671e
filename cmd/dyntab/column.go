package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyntab/dyntab/internal/coltype"
	"github.com/dyntab/dyntab/internal/types"
)

var columnCmd = &cobra.Command{
	Use:   "column",
	Short: "Create, edit, and inspect columns",
}

var columnCreateCmd = &cobra.Command{
	Use:   "create TABLE_ID NAME",
	Short: "Add a column to a table",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tableID := mustParseID(args[0])
		spec := columnSpecFromFlags(cmd, args[1])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		result, err := e.Execute(backgroundCtx, types.Action{Kind: types.ActionCreateTableColumn, TableID: tableID, ColumnSpec: spec})
		if err != nil {
			exitErr(err)
		}
		fmt.Printf("created column %d (%s) on table %d\n", result.ColumnID, spec.Name, tableID)
	},
}

var columnEditCmd = &cobra.Command{
	Use:   "edit TABLE_ID COLUMN_ID NAME",
	Short: "Edit a column's metadata (undoable clone-based edit)",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		tableID, columnID := mustParseID(args[0]), mustParseID(args[1])
		spec := columnSpecFromFlags(cmd, args[2])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if _, err := e.Execute(backgroundCtx, types.Action{Kind: types.ActionEditTableColumnMetadata, TableID: tableID, ColumnID: columnID, ColumnSpec: spec}); err != nil {
			exitErr(err)
		}
		fmt.Println("column updated")
	},
}

var columnTrashCmd = &cobra.Command{
	Use:   "trash TABLE_ID COLUMN_ID",
	Short: "Soft-delete a column (undoable)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runColumnIDAction(types.ActionDeleteTableColumn, mustParseID(args[0]), mustParseID(args[1]))
	},
}

var columnRestoreCmd = &cobra.Command{
	Use:   "restore TABLE_ID COLUMN_ID",
	Short: "Restore a trashed column (undoable)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runColumnIDAction(types.ActionRestoreDeletedTableColumn, mustParseID(args[0]), mustParseID(args[1]))
	},
}

var columnPurgeCmd = &cobra.Command{
	Use:   "purge TABLE_ID COLUMN_ID",
	Short: "Permanently delete a trashed column (not undoable)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tableID, columnID := mustParseID(args[0]), mustParseID(args[1])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if err := e.PurgeColumn(backgroundCtx, tableID, columnID); err != nil {
			exitErr(err)
		}
		fmt.Printf("purged column %d\n", columnID)
	},
}

var columnDropdownCmd = &cobra.Command{
	Use:   "dropdown-values TABLE_ID COLUMN_ID [VALUE...]",
	Short: "Get or replace a single/multi-select column's dropdown values",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tableID, columnID := mustParseID(args[0]), mustParseID(args[1])
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()

		if len(args) == 2 {
			values, err := e.GetDropdownValues(backgroundCtx, columnID)
			if err != nil {
				exitErr(err)
			}
			for _, v := range values {
				fmt.Printf("%s\t%s\n", v.TrueValue, v.DisplayValue)
			}
			return
		}

		values := args[2:]
		if _, err := e.Execute(backgroundCtx, types.Action{
			Kind:           types.ActionEditTableColumnDropdownValues,
			TableID:        tableID,
			ColumnID:       columnID,
			DropdownValues: values,
		}); err != nil {
			exitErr(err)
		}
		fmt.Println("dropdown values updated")
	},
}

func runColumnIDAction(kind types.ActionKind, tableID, columnID int64) {
	e, err := openEngine(backgroundCtx)
	if err != nil {
		exitErr(err)
	}
	defer e.Close()
	if _, err := e.Execute(backgroundCtx, types.Action{Kind: kind, TableID: tableID, ColumnID: columnID}); err != nil {
		exitErr(err)
	}
	fmt.Println("ok")
}

// columnSpecFromFlags builds a types.ColumnSpec from the --type,
// --target, --nullable, --unique, --primary-key, --display-style flags
// shared by column create and column edit.
func columnSpecFromFlags(cmd *cobra.Command, name string) types.ColumnSpec {
	typeStr, _ := cmd.Flags().GetString("type")
	target, _ := cmd.Flags().GetInt64("target")
	nullable, _ := cmd.Flags().GetBool("nullable")
	unique, _ := cmd.Flags().GetBool("unique")
	primaryKey, _ := cmd.Flags().GetBool("primary-key")
	displayStyle, _ := cmd.Flags().GetString("display-style")

	typeOID, mode, err := parseColumnType(typeStr, target)
	if err != nil {
		exitErr(err)
	}
	return types.ColumnSpec{
		Name:         name,
		TypeOID:      typeOID,
		Mode:         mode,
		DisplayStyle: displayStyle,
		Nullable:     nullable,
		Unique:       unique,
		PrimaryKey:   primaryKey,
	}
}

var primitiveNames = map[string]types.Primitive{
	"any": types.PrimitiveAny, "bool": types.PrimitiveBool, "int": types.PrimitiveInt,
	"number": types.PrimitiveNumber, "date": types.PrimitiveDate, "timestamp": types.PrimitiveTimestamp,
	"text": types.PrimitiveText, "json": types.PrimitiveJSON, "file": types.PrimitiveFile, "image": types.PrimitiveImage,
}

// parseColumnType maps a CLI --type value to the (typeOID, mode) pair
// schema.CreateColumn/EditColumn expect (spec.md §4.3). For
// single-select/multi-select/child-table the target id is materialized
// fresh by CreateColumn, so typeOID is left 0 for create; edit reuses
// whatever target the caller names.
func parseColumnType(typeStr string, target int64) (typeOID int64, mode int, err error) {
	if p, ok := primitiveNames[strings.ToLower(typeStr)]; ok {
		return int64(p), int(coltype.VariantPrimitive), nil
	}
	switch strings.ToLower(typeStr) {
	case "single-select":
		return target, int(coltype.VariantSingleSelect), nil
	case "multi-select":
		return target, int(coltype.VariantMultiSelect), nil
	case "reference":
		if target == 0 {
			return 0, 0, fmt.Errorf("--type reference requires --target TABLE_ID")
		}
		return target, int(coltype.VariantReference), nil
	case "child-object":
		if target == 0 {
			return 0, 0, fmt.Errorf("--type child-object requires --target TABLE_ID")
		}
		return target, int(coltype.VariantChildObject), nil
	case "child-table":
		return target, int(coltype.VariantChildTable), nil
	default:
		return 0, 0, fmt.Errorf("unknown column type %q", typeStr)
	}
}

func init() {
	for _, c := range []*cobra.Command{columnCreateCmd, columnEditCmd} {
		c.Flags().String("type", "text", "column type: any,bool,int,number,date,timestamp,text,json,file,image,single-select,multi-select,reference,child-object,child-table")
		c.Flags().Int64("target", 0, "target table id for reference/child-object, or an existing values-table id for single-select/multi-select edit")
		c.Flags().Bool("nullable", true, "whether the column accepts an empty value")
		c.Flags().Bool("unique", false, "whether the column's value must be unique within the table")
		c.Flags().Bool("primary-key", false, "whether the column contributes to the table's surrogate display value")
		c.Flags().String("display-style", "", "presentation hint stored alongside the column")
	}
	columnCmd.AddCommand(columnCreateCmd, columnEditCmd, columnTrashCmd, columnRestoreCmd, columnPurgeCmd, columnDropdownCmd)
	rootCmd.AddCommand(columnCmd)
}
