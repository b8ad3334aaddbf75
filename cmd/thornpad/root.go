package main

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thornpad/thornpad/internal/cli"
	"github.com/thornpad/thornpad/pkg/vault"
)

var flagVaultDir string

var rootCmd = &cobra.Command{
	Use:   "thornpad",
	Short: "thornpad is a local markdown vault with optional encryption at rest",
	Long: `A local file-based vault for markdown records and binary attachments.

Records are stored as markdown files with YAML frontmatter; attachments are
content-addressed by SHA-256. A vault can be encrypted at rest with a
passphrase (Argon2id + AES-256-GCM), gated with a password, or both.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagVaultDir, "vault", "",
		"Vault directory (default: $THORNPAD_VAULT or the XDG data directory)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(blobCmd)
	rootCmd.AddCommand(infoCmd)
}

func vaultDir() string {
	return cli.ResolveVaultDir(flagVaultDir)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// openSession opens the vault, taking the password from THORNPAD_PASSWORD
// when set and prompting otherwise. The vault core never reads the terminal
// itself; all interactive input happens here.
func openSession() (*vault.Vault, error) {
	dir := vaultDir()

	v, err := vault.Open(dir, cli.PasswordFromEnv())
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, vault.ErrAuthRequired) {
		return nil, err
	}

	password, promptErr := promptPassword("Enter vault password: ")
	if promptErr != nil {
		return nil, promptErr
	}

	// An encrypted vault comes back as a locked session; a gated one comes
	// back nil and needs a fresh open.
	if v != nil {
		if err := v.Unlock(password); err != nil {
			return nil, err
		}
		return v, nil
	}
	return vault.Open(dir, password)
}
