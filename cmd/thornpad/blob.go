package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var blobGetOutput string

func init() {
	blobCmd.AddCommand(blobGetCmd)
	blobGetCmd.Flags().StringVarP(&blobGetOutput, "output", "o", "", "Output file path (default: stdout)")
}

// attachCmd stores a file as a content-addressed blob.
var attachCmd = &cobra.Command{
	Use:   "attach [file]",
	Short: "Stores a file as a content-addressed attachment",
	Long: `Stores a file in the vault's blob store, addressed by the SHA-256 of its
content. Attaching the same file twice stores it once and prints the same
digest. The digest can be referenced from record bodies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(args[0]))

		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		ref, err := v.PutBlob(content, mimeType)
		if err != nil {
			return fmt.Errorf("failed to store attachment: %w", err)
		}

		fmt.Printf("Stored %s (%d bytes)\n", ref.SHA256, ref.SizeBytes)
		return nil
	},
}

// blobCmd is the parent command for blob operations.
var blobCmd = &cobra.Command{
	Use:   "blob",
	Short: "Blob store operations",
}

// blobGetCmd retrieves a blob by digest.
var blobGetCmd = &cobra.Command{
	Use:   "get [sha256]",
	Short: "Retrieves a blob by its SHA-256 digest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		content, err := v.GetBlob(args[0])
		if err != nil {
			return fmt.Errorf("failed to read blob: %w", err)
		}

		if blobGetOutput == "" {
			_, err = os.Stdout.Write(content)
			return err
		}
		if err := os.WriteFile(blobGetOutput, content, 0600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(content), blobGetOutput)
		return nil
	},
}
