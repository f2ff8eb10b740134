package main

import (
	"os"

	"github.com/spf13/afero"

	"github.com/kdeps/tempshare/cmd"
	"github.com/kdeps/tempshare/pkg/environment"
	"github.com/kdeps/tempshare/pkg/logging"
)

// Injectable functions for testability
var (
	// OS operations
	OsExitFn = os.Exit

	// Afero filesystem
	NewOsFsFn = afero.NewOsFs

	// Environment functions
	NewEnvironmentFn = environment.NewEnvironment

	// Command functions
	NewRootCommandFn = cmd.NewRootCommand

	// Logging functions
	GetLoggerFn = logging.GetLogger
)
