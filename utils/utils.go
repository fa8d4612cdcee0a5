package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultDatabaseName is the catalog file created when no path is configured
const DefaultDatabaseName = "imagecurator.db"

// GetDefaultDatabasePath returns the default path for the catalog file
func GetDefaultDatabasePath() string {
	// Get the executable path
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return DefaultDatabaseName
	}

	// Return the default database path next to the executable
	return filepath.Join(filepath.Dir(exePath), DefaultDatabaseName)
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
// The empty string is returned unchanged.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ParseThreshold parses and validates a Hamming-distance threshold (0-64 for
// a 64-bit fingerprint)
func ParseThreshold(thresholdStr string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(thresholdStr))
	if err != nil || parsed < 0 || parsed > 64 {
		return 0, fmt.Errorf("invalid threshold value %q, want an integer between 0 and 64", thresholdStr)
	}
	return parsed, nil
}

// ParseClusterID parses a positive cluster id argument
func ParseClusterID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid cluster id %q", s)
	}
	return id, nil
}
