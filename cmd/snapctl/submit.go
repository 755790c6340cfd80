package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <snapshot.json>",
	Short: "Submit a snapshot file to the inventory server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}
		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}

		var res struct {
			OK        bool   `json:"ok"`
			DeviceKey string `json:"device_key"`
			ReportID  int64  `json:"report_id"`
			Hostname  string `json:"hostname"`
		}
		if err := client.do("POST", "/ingest", raw, &res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "accepted: device %s report %d\n", res.DeviceKey, res.ReportID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
