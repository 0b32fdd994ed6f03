// Provisiond-cfg is a companion utility for provisiond agents.
//
// It discovers agents on the local network, encrypts WiFi credentials
// into the payload format the agent accepts, and submits them over the
// provisioning HTTP endpoint. It can also follow an agent's connection
// state live over its WebSocket status stream.
//
// Usage:
//
//	provisiond-cfg [command] [flags]
//
// See 'provisiond-cfg --help' for available commands.
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
	Use:   "provisiond-cfg",
	Short: "Provisioning agent companion utility",
	Long: `A companion utility for provisiond agents.

Discovers agents over mDNS, encrypts WiFi credentials into the payload
format the agent accepts, and submits them to the agent's provisioning
endpoint. While the device is in setup mode, connect to its access
point first; once provisioned, the agent is reachable on the home
network instead.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("provisiond-cfg %s (commit: %s)\n", version.Version, version.Commit)
	},
}
