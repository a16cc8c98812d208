package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the blocks of the chain.",
	RunE:  chainRun,
}

var validCmd = &cobra.Command{
	Use:   "valid",
	Short: "Check the chain is intact.",
	RunE:  validRun,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print the transactions waiting to be mined.",
	RunE:  pendingRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(validCmd)
	rootCmd.AddCommand(pendingCmd)
}

func chainRun(cmd *cobra.Command, args []string) error {
	chain, err := client().Chain(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, block := range chain.Chain {
		fmt.Fprintf(out, "Block %d: %s: prev[%s]: nonce[%d]\n", block.Index, block.Hash, block.PreviousHash, block.Nonce)
		for _, tx := range block.Transactions {
			fmt.Fprintf(out, "  %s\n", tx)
		}
	}
	fmt.Fprintf(out, "Length: %d\n", chain.Length)

	return nil
}

func validRun(cmd *cobra.Command, args []string) error {
	valid, err := client().Valid(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Valid: %t\n", valid)
	return nil
}

func pendingRun(cmd *cobra.Command, args []string) error {
	pending, err := client().Pending(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, tx := range pending.Transactions {
		fmt.Fprintf(out, "%s\n", tx)
	}
	fmt.Fprintf(out, "Pending: %d\n", pending.Count)

	return nil
}
