// Package cli provides shared utilities for CLI commands.
package cli

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variables honored by the CLI.
const (
	// EnvVaultDir overrides the default vault location.
	EnvVaultDir = "THORNPAD_VAULT"

	// EnvPassword supplies the vault password for non-interactive use.
	EnvPassword = "THORNPAD_PASSWORD"
)

// appDirName is the directory name under the XDG data home.
const appDirName = "thornpad"

// ResolveVaultDir picks the vault directory: an explicit flag value wins,
// then THORNPAD_VAULT, then the XDG data directory.
func ResolveVaultDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvVaultDir); env != "" {
		return env
	}
	return filepath.Join(xdg.DataHome, appDirName)
}

// PasswordFromEnv returns the password supplied out-of-band, or empty when
// the caller should prompt interactively.
func PasswordFromEnv() string {
	return os.Getenv(EnvPassword)
}
