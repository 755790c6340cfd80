// snapctl is the operator CLI for the snapshot inventory: evaluate snapshots
// locally, submit them to a server, and query stored devices and reports.
package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "snapctl",
	Short: "Machine snapshot inventory CLI",
	Long: `snapctl works with it-snapshot agent payloads: it can score a snapshot
file against the rule catalog without a server, submit snapshots to an
inventory server, and query the devices and reports the server holds.`,
	SilenceUsage: true,
}

var configPath string

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to snapctl config file (default snapctl.yaml if present)")
}
