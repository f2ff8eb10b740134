package cmd

import (
	"context"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"

	"github.com/kdeps/tempshare/pkg/retention"
)

// Injectable functions for testability (shared across cmd package)
var (
	// Blocks until SIGINT or SIGTERM, runs every operation and returns the exit code
	AwaitShutdownFn = func(ctx context.Context, timeout time.Duration, ops map[string]gfshutdown.Operation) int {
		return <-gfshutdown.GracefulShutdown(ctx, timeout, ops)
	}

	// Gin mode selection
	SetGinModeFn = gin.SetMode

	// Time source for every command
	NewClockFn = retention.NewClock
)
