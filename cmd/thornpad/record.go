package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/thornpad/thornpad/internal/cli"
	"github.com/thornpad/thornpad/pkg/vault"
)

// Record command flags
var (
	createType string
	createTags string
	createBody string

	editType string
	editTags string
	editBody string

	listType   string
	listTag    string
	listFormat string
)

func init() {
	createCmd.Flags().StringVar(&createType, "type", "note", "Record type")
	createCmd.Flags().StringVar(&createTags, "tags", "", "Comma-separated tags (e.g., work,meeting)")
	createCmd.Flags().StringVar(&createBody, "body", "", "Markdown body (default: read from stdin)")

	editCmd.Flags().StringVar(&editType, "type", "", "New record type (default: keep current)")
	editCmd.Flags().StringVar(&editTags, "tags", "", "New comma-separated tags (default: keep current)")
	editCmd.Flags().StringVar(&editBody, "body", "", "New markdown body (default: read from stdin)")

	listCmd.Flags().StringVar(&listType, "type", "", "Filter by record type (glob pattern supported)")
	listCmd.Flags().StringVar(&listTag, "tag", "", "Filter by tag (glob pattern supported)")
	listCmd.Flags().StringVar(&listFormat, "format", "table", "Output format: table or json")
}

// readBody takes the body from a flag or from stdin.
func readBody(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read body from stdin: %w", err)
	}
	return string(data), nil
}

func parseRecordID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid record id %q: %w", arg, err)
	}
	return id, nil
}

// createCmd creates a new record.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a new record",
	Long: `Creates a new markdown record.

The body is taken from --body, or read from standard input:
  echo "# Shopping list" | thornpad create --type note --tags home`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readBody(createBody)
		if err != nil {
			return err
		}

		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		r, err := v.CreateRecord(createType, cli.SplitTags(createTags), body)
		if err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}

		fmt.Printf("Record %s created\n", r.ID)
		return nil
	},
}

// showCmd prints one record.
var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Shows a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		r, err := v.ReadRecord(id)
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		fmt.Printf("id:      %s\n", r.ID)
		fmt.Printf("type:    %s\n", r.Type)
		if len(r.Tags) > 0 {
			fmt.Printf("tags:    %s\n", strings.Join(r.Tags, ", "))
		}
		fmt.Printf("created: %s\n", r.CreatedAtUTC.Format(time.RFC3339))
		fmt.Printf("updated: %s\n", r.UpdatedAtUTC.Format(time.RFC3339))
		fmt.Println()
		fmt.Print(r.BodyMarkdown)
		if !strings.HasSuffix(r.BodyMarkdown, "\n") {
			fmt.Println()
		}
		return nil
	},
}

// editCmd updates a record.
var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Updates a record's type, tags or body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		current, err := v.ReadRecord(id)
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		newType := current.Type
		if editType != "" {
			newType = editType
		}
		newTags := current.Tags
		if editTags != "" {
			newTags = cli.SplitTags(editTags)
		}
		newBody := current.BodyMarkdown
		if editBody != "" {
			newBody = editBody
		} else if !cmd.Flags().Changed("type") && !cmd.Flags().Changed("tags") {
			// No flags at all: the new body comes from stdin.
			if newBody, err = readBody(""); err != nil {
				return err
			}
		}

		if _, err := v.UpdateRecord(id, newType, newTags, newBody); err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}

		fmt.Printf("Record %s updated\n", id)
		return nil
	},
}

// deleteCmd soft-deletes a record.
var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Moves a record to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		if err := v.DeleteRecord(id); err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}

		fmt.Printf("Record %s moved to trash\n", id)
		return nil
	},
}

// restoreCmd moves a trashed record back.
var restoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "Restores a record from the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		if err := v.RestoreRecord(id); err != nil {
			return fmt.Errorf("failed to restore record: %w", err)
		}

		fmt.Printf("Record %s restored\n", id)
		return nil
	},
}

// listCmd lists records, newest first.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists records",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		headers, err := v.ListRecords()
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		headers, err = cli.FilterHeaders(headers, listType, listTag)
		if err != nil {
			return err
		}

		switch listFormat {
		case "json":
			return printHeadersJSON(headers)
		case "table":
			printHeadersTable(headers)
			return nil
		default:
			return fmt.Errorf("invalid format: %s (valid values: table, json)", listFormat)
		}
	},
}

type headerOutput struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Tags    []string `json:"tags,omitempty"`
	Updated string   `json:"updated"`
}

func printHeadersJSON(headers []vault.RecordHeader) error {
	out := make([]headerOutput, 0, len(headers))
	for _, h := range headers {
		out = append(out, headerOutput{
			ID:      h.ID.String(),
			Title:   h.Title,
			Type:    h.Type,
			Tags:    h.Tags,
			Updated: h.UpdatedAtUTC.Format(time.RFC3339),
		})
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func printHeadersTable(headers []vault.RecordHeader) {
	if len(headers) == 0 {
		fmt.Println("No records found")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "TITLE", "TYPE", "TAGS", "UPDATED"})
	for _, h := range headers {
		t.AppendRow(table.Row{
			h.ID.String(),
			h.Title,
			h.Type,
			strings.Join(h.Tags, ","),
			h.UpdatedAtUTC.Format("2006-01-02 15:04"),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	fmt.Printf("\nTotal: %d records\n", len(headers))
}
