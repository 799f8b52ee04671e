package main

import (
	"context"
	"os"
	"testing"

	"rsc.io/script"
	"rsc.io/script/scripttest"
)

// TestMain lets the testdata/script/*.txt files invoke "dyntab" as a
// subprocess command backed by this same test binary, the way cmd/go's
// own script tests run "go" without a separate build step.
func TestMain(m *testing.M) {
	os.Exit(scripttest.RunMain(m, map[string]func() int{
		"dyntab": run,
	}))
}

func TestCLI(t *testing.T) {
	engine := &script.Engine{
		Cmds:  script.DefaultCmds(),
		Conds: script.DefaultConds(),
	}
	ctx := context.Background()
	env := []string{"HOME=" + os.Getenv("HOME")}
	scripttest.Test(t, ctx, engine, env, "testdata/script/*.txt")
}
