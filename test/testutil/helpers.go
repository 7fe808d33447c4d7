// Package testutil provides test helper functions for unit and integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// ProjectPath returns the absolute path of a file relative to the repository root.
func ProjectPath(t *testing.T, parts ...string) string {
	t.Helper()

	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}

	// testutil lives in test/testutil
	root := filepath.Join(filepath.Dir(currentFile), "..", "..")
	return filepath.Join(append([]string{root}, parts...)...)
}

// LoadFile reads a file relative to the repository root.
func LoadFile(t *testing.T, parts ...string) []byte {
	t.Helper()

	path := ProjectPath(t, parts...)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to load file %s: %v", path, err)
	}
	return data
}

// MustParseTime parses a time string in RFC3339 format.
func MustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("Failed to parse time %s: %v", value, err)
	}
	return parsed
}

// MustParseDate parses a date string in YYYY-MM-DD format as UTC midnight.
func MustParseDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("Failed to parse date %s: %v", value, err)
	}
	return parsed
}

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}
