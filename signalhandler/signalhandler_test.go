package signalhandler

import (
	"context"
	"runtime"
	"syscall"
	"testing"
	"time"
)

func TestGetOptimalProcs(t *testing.T) {
	got := GetOptimalProcs()
	if got < 1 {
		t.Fatalf("GetOptimalProcs() = %d, want at least 1", got)
	}
	if got > runtime.NumCPU() {
		t.Fatalf("GetOptimalProcs() = %d exceeds NumCPU %d", got, runtime.NumCPU())
	}
}

func TestContextCancelledBySignal(t *testing.T) {
	ctx, stop := Context(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

func TestContextStopReleases(t *testing.T) {
	ctx, stop := Context(context.Background())
	stop()
	if ctx.Err() == nil {
		t.Fatal("stop should cancel the context")
	}
}
