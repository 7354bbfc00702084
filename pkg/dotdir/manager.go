// Package dotdir manages the .semsearch/ and ~/.semsearch directories.
//
// The directory holds config.toml and the record of the last completed
// ingest, which lets "semsearch status" and "semsearch query" report what the
// store was built with.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the semsearch directory.
	dirName = ".semsearch"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .semsearch/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.semsearch/ dir
//  3. Home ~/.semsearch/ dir, created if missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating semsearch directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// Init creates a .semsearch/ directory under parent and returns its path.
func (m *Manager) Init(parent string) (string, error) {
	if parent == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		parent = cwd
	}
	return m.Target(filepath.Join(parent, dirName))
}

// localDirExists checks whether a .semsearch/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
