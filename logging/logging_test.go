package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curator.log")
	if err := SetupLogger(Options{Level: "error", File: path}); err != nil {
		t.Fatalf("SetupLogger failed: %v", err)
	}
	LogImageProcessed("/photos/broken.jpg", false, "decode failure")
	DebugLog("batch %d committed", 3)
	CloseLogger()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "/photos/broken.jpg") {
		t.Fatalf("expected failed path in log, got:\n%s", content)
	}
	if !strings.Contains(content, "batch 3 committed") {
		t.Fatalf("expected debug record in file log, got:\n%s", content)
	}
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	if err := SetupLogger(Options{Level: "chatty"}); err == nil {
		CloseLogger()
		t.Fatal("expected invalid level error")
	}
}

func TestLoggingBeforeSetupIsSafe(t *testing.T) {
	CloseLogger()
	LogInfo("nothing configured %s", "yet")
	Warn("still quiet", "key", "value")
}
