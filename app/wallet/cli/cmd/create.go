package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <address>",
	Short: "Register a wallet address with the node.",
	Args:  cobra.ExactArgs(1),
	RunE:  createRun,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func createRun(cmd *cobra.Command, args []string) error {
	created, err := client().CreateWallet(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if !created {
		fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s already exists\n", args[0])
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s created\n", args[0])
	return nil
}
