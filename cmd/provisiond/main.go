// Provisiond is a WiFi provisioning agent for headless devices.
//
// On boot it tries stored credentials; when none exist or the join
// fails it raises a setup access point and accepts encrypted
// credentials over a small HTTP API. A sustained hold on the reset
// button wipes the stored credentials and restarts the device.
//
// Usage:
//
//	provisiond serve [flags]
//
// See 'provisiond serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provkit/provisiond/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "provisiond",
	Short: "WiFi provisioning agent",
	Long: `A WiFi provisioning agent for headless devices.

The agent joins the network named by its stored credentials, or raises
a setup access point when it has none. A companion phone app or the
'provisiond-cfg' utility submits encrypted credentials to the agent's
HTTP endpoint; once a join succeeds the credentials are persisted and
reused on the next boot.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("provisiond %s (commit: %s)\n", version.Version, version.Commit)
	},
}
