package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

// run is main's body, factored out so script_test.go's scripttest
// harness can invoke it as an in-process subprocess command.
func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
