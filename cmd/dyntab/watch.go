package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchCmd complements notify.Bus (C8), which only reaches subscribers
// inside the process that executed an action. Since dyntab's CLI is a
// new process per invocation, a long-running `watch` instead follows
// external writes to the database file itself — the one signal that
// crosses process boundaries in a single-writer, file-locked engine.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the table list whenever the database file changes on disk",
	Run: func(cmd *cobra.Command, args []string) {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			exitErr(fmt.Errorf("start file watcher: %w", err))
		}
		defer watcher.Close()

		dir := filepath.Dir(dbPath)
		if dir == "" {
			dir = "."
		}
		if err := watcher.Add(dir); err != nil {
			exitErr(fmt.Errorf("watch %s: %w", dir, err))
		}

		printTables()

		var debounce *time.Timer
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != filepath.Base(dbPath) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, printTables)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintln(os.Stderr, "watch error:", err)
			}
		}
	},
}

func printTables() {
	e, err := openEngine(backgroundCtx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	defer e.Close()
	tables, err := e.ListTables(backgroundCtx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	fmt.Printf("--- %s ---\n", time.Now().Format(time.RFC3339))
	for _, t := range tables {
		fmt.Printf("%d\t%s\n", t.OID, t.Name)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
