package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine <address>",
	Short: "Mine the pending transactions and pay the reward to the address.",
	Args:  cobra.ExactArgs(1),
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) error {
	mining, err := client().Mine(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Block:   %d\n", mining.Block.Index)
	fmt.Fprintf(out, "Hash:    %s\n", mining.Block.Hash)
	fmt.Fprintf(out, "Nonce:   %d\n", mining.Block.Nonce)
	fmt.Fprintf(out, "Trans:   %d\n", len(mining.Block.Transactions))
	fmt.Fprintf(out, "Reward:  %s\n", mining.Reward)
	fmt.Fprintf(out, "Balance: %s\n", mining.NewBalance)
	return nil
}
