package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thornpad/thornpad/internal/cli"
	"github.com/thornpad/thornpad/pkg/security"
	"github.com/thornpad/thornpad/pkg/vault"
)

var (
	initEncrypt bool
	initGate    bool
)

func init() {
	initCmd.Flags().BoolVar(&initEncrypt, "encrypt", false, "Encrypt the vault at rest")
	initCmd.Flags().BoolVar(&initGate, "gate", false, "Require a password to open the vault")
}

// initCmd initializes a new vault.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initializes a new vault",
	Long: `Initializes a new vault directory.

With --encrypt, every record and attachment is encrypted at rest under a
passphrase; encryption can only be enabled at init time, on an empty vault.
With --gate, opening the vault requires a password but content stays
plaintext. The two can be combined with the same passphrase.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := vaultDir()

		var password string
		if initEncrypt || initGate {
			var err error
			if password, err = collectPassphrase(); err != nil {
				return err
			}
		}

		v, err := vault.Init(dir)
		if err != nil {
			return fmt.Errorf("failed to initialize vault: %w", err)
		}
		defer v.Close()

		if initEncrypt {
			if err := v.EnableEncryption(password); err != nil {
				return fmt.Errorf("failed to enable encryption: %w", err)
			}
		}
		if initGate {
			if err := v.EnablePasswordGate(password); err != nil {
				return fmt.Errorf("failed to enable password gate: %w", err)
			}
		}

		fmt.Printf("Vault initialized at %s\n", dir)
		if initEncrypt {
			fmt.Println("Encryption at rest: enabled")
		}
		if initGate {
			fmt.Println("Password gate: enabled")
		}
		return nil
	},
}

// collectPassphrase prompts for a passphrase with confirmation and strength
// feedback, or takes it from the environment for non-interactive use.
func collectPassphrase() (string, error) {
	if env := cli.PasswordFromEnv(); env != "" {
		result := security.ValidatePassphrase(env)
		if !result.Valid {
			return "", fmt.Errorf("passphrase validation failed: %s", result.Warnings[0])
		}
		return env, nil
	}

	password1, err := promptPassword("Enter vault passphrase: ")
	if err != nil {
		return "", err
	}
	password2, err := promptPassword("Confirm vault passphrase: ")
	if err != nil {
		return "", err
	}
	if password1 != password2 {
		return "", fmt.Errorf("passphrases do not match")
	}

	result := security.ValidatePassphrase(password1)
	if !result.Valid {
		return "", fmt.Errorf("passphrase validation failed: %s", result.Warnings[0])
	}

	fmt.Printf("Passphrase strength: %s\n", result.Strength)
	for _, warning := range result.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	return password1, nil
}
