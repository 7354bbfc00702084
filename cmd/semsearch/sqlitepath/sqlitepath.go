// Package sqlitepath resolves where the SQLite document store lives.
package sqlitepath

import (
	"os"
	"path/filepath"
	"strings"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ResolveSQLitePath returns the database path for a configured value.
// Absolute paths and MemoryPath are used as is. A relative path that
// already exists under the working directory is kept; otherwise it is
// placed inside dotdir so the database sits next to config.toml.
func ResolveSQLitePath(configured, dotdir string) string {
	configured = strings.TrimSpace(configured)

	switch {
	case configured == "":
		return ""
	case configured == MemoryPath, strings.HasPrefix(configured, "file:"):
		return configured
	case filepath.IsAbs(configured):
		return configured
	}

	if _, err := os.Stat(configured); err == nil {
		return configured
	}

	if dotdir == "" {
		return configured
	}
	return filepath.Join(dotdir, configured)
}
