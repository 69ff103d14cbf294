package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDatabasePath returns the default location for the SQLite database.
func DefaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "inboxpilot", "inboxpilot.db"), nil
}
