package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// Context returns a context cancelled on SIGINT or SIGTERM. Cancellation lets
// in-flight cgo decodes finish instead of exiting mid-call; a second signal
// restores the default behaviour and terminates the process.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	// For image processing with CGo, using too many goroutines can cause issues
	maxProcs := (runtime.NumCPU() * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}
	return maxProcs
}
