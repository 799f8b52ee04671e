package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dyntab/dyntab/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a database file and a starter config",
	Run: func(cmd *cobra.Command, args []string) {
		path := dbPath
		if path == "" {
			path = "dyntab.db"
		}
		e, err := openEngine(backgroundCtx)
		if err != nil {
			exitErr(fmt.Errorf("open %s: %w", path, err))
		}
		if err := e.Close(); err != nil {
			exitErr(err)
		}

		configPath := filepath.Join(".dyntab", "config.toml")
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("database ready at %s (config.toml already present)\n", path)
			return
		}
		if err := config.WriteDefaultConfig(configPath); err != nil {
			exitErr(fmt.Errorf("write starter config: %w", err))
		}
		fmt.Printf("database ready at %s, config written to %s\n", path, configPath)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
