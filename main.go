package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	OsExitFn(run(context.Background(), os.Args[1:]))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string) int {
	fs := NewOsFsFn()
	logger := GetLoggerFn()

	env, err := NewEnvironmentFn(fs, nil)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	if env.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	rootCmd := NewRootCommandFn(ctx, fs, env, logger)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		return 1
	}
	return 0
}
