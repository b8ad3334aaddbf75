package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// infoCmd prints vault identity and security configuration.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Shows vault identity and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openSession()
		if err != nil {
			return err
		}
		defer v.Close()

		info := v.Info()
		fmt.Printf("path:       %s\n", vaultDir())
		fmt.Printf("vault id:   %s\n", info.VaultID)
		fmt.Printf("schema:     %d\n", info.Schema)
		fmt.Printf("created:    %s\n", info.CreatedAtUTC.Format(time.RFC3339))
		fmt.Printf("encrypted:  %t\n", v.Encrypted())
		fmt.Printf("gated:      %t\n", v.Gated())

		records, err := v.ListRecords()
		if err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}
		fmt.Printf("records:    %d\n", len(records))

		if disk, err := v.CheckDiskSpace(); err == nil {
			fmt.Printf("disk free:  %.1f GiB (%d%% used)\n",
				float64(disk.Available)/(1<<30), disk.UsedPct)
		}
		return nil
	},
}
