package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the most recently executed action",
	Run: func(cmd *cobra.Command, args []string) {
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if err := e.Undo(backgroundCtx); err != nil {
			exitErr(err)
		}
		fmt.Println("undone")
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Re-apply the most recently undone action",
	Run: func(cmd *cobra.Command, args []string) {
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(err)
		}
		defer e.Close()
		if err := e.Redo(backgroundCtx); err != nil {
			exitErr(err)
		}
		fmt.Println("redone")
	},
}

func init() {
	rootCmd.AddCommand(undoCmd, redoCmd)
}
