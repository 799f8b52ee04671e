package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyntab/dyntab/internal/config"
	"github.com/dyntab/dyntab/internal/engine"
	"github.com/dyntab/dyntab/internal/observability"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "dyntab",
	Short: "Drive a schema-on-data relational engine from the shell",
	Long: `dyntab opens a dyntab database and runs schema and data operations
against it: create tables and columns on the fly, push and edit rows,
and undo or redo any of it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		}
		if dbPath == "" {
			if envDB := os.Getenv("DYNTAB_DB"); envDB != "" {
				dbPath = envDB
			} else {
				dbPath = config.GetString("db")
			}
		}
		if dbPath == "" {
			dbPath = "dyntab.db"
		}
		slog.SetDefault(observability.NewLogger(observability.Options{
			LogFile: config.GetString("log-file"),
			Level:   observability.LevelFromString(config.GetString("log-level")),
		}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the dyntab database file (default: $DYNTAB_DB, config db, or ./dyntab.db)")
}

// openEngine opens the database at dbPath for the duration of one CLI
// invocation. Every subcommand calls this once and defers Close.
func openEngine(ctx context.Context) (*engine.Engine, error) {
	return engine.Open(ctx, dbPath, slog.Default())
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

var backgroundCtx = context.Background()
