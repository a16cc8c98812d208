// Package cmd contains the wallet commands for talking to a ledger node.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	nodeURL string
	timeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:5000", "Url of the node.")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Time to wait for the node.")
}

var rootCmd = &cobra.Command{
	Use:           "wallet",
	Short:         "Your simple scremy wallet",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the wallet command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func client() *Client {
	return NewClient(nodeURL, timeout)
}
