package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices known to the inventory server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromConfig()
		if err != nil {
			return err
		}
		var res map[string]any
		if err := client.do("GET", "/devices", nil, &res); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest <device-key>",
	Short: "Fetch the most recently collected report for a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromConfig()
		if err != nil {
			return err
		}
		var res map[string]any
		path := "/devices/" + url.PathEscape(args[0]) + "/latest"
		if err := client.do("GET", path, nil, &res); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var reportsLimit int

var reportsCmd = &cobra.Command{
	Use:   "reports <device-key>",
	Short: "List report history for a device, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromConfig()
		if err != nil {
			return err
		}
		var res map[string]any
		path := fmt.Sprintf("/devices/%s/reports?limit=%d", url.PathEscape(args[0]), reportsLimit)
		if err := client.do("GET", path, nil, &res); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func clientFromConfig() (*apiClient, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	return newAPIClient(cfg)
}

func init() {
	reportsCmd.Flags().IntVarP(&reportsLimit, "limit", "n", 50, "Maximum number of reports to return")
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(reportsCmd)
}
