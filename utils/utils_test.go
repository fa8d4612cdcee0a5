package utils

import (
	"path/filepath"
	"testing"
)

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"16", 16, false},
		{" 0 ", 0, false},
		{"64", 64, false},
		{"65", 0, true},
		{"-1", 0, true},
		{"0.8", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseThreshold(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseThreshold(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseThreshold(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseClusterID(t *testing.T) {
	if id, err := ParseClusterID("42"); err != nil || id != 42 {
		t.Fatalf("ParseClusterID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"0", "-3", "x", ""} {
		if _, err := ParseClusterID(bad); err == nil {
			t.Errorf("ParseClusterID(%q) should fail", bad)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/photos/../catalog.db")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "catalog.db"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got, _ := ExpandPath(""); got != "" {
		t.Errorf("empty path expanded to %q", got)
	}
}

func TestDefaultDatabasePath(t *testing.T) {
	if filepath.Base(GetDefaultDatabasePath()) != DefaultDatabaseName {
		t.Errorf("unexpected default %q", GetDefaultDatabasePath())
	}
}
