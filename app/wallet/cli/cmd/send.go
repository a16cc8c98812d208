package cmd

import (
	"fmt"

	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	from   string
	to     string
	amount string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Move funds between two addresses right away.",
	RunE:  transferRun,
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a transaction to be applied by the next mined block.",
	RunE:  submitRun,
}

func init() {
	for _, c := range []*cobra.Command{transferCmd, submitCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&from, "from", "f", "", "Address sending the funds.")
		c.Flags().StringVarP(&to, "to", "r", "", "Address receiving the funds.")
		c.Flags().StringVarP(&amount, "amount", "v", "", "Amount to send.")
		c.MarkFlagRequired("from")
		c.MarkFlagRequired("to")
		c.MarkFlagRequired("amount")
	}
}

func transferRun(cmd *cobra.Command, args []string) error {
	value, err := database.NewAmount(amount)
	if err != nil {
		return fmt.Errorf("parsing amount: %w", err)
	}

	balance, err := client().Transfer(cmd.Context(), from, to, value)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s, %s now holds %s\n", value, to, from, balance)
	return nil
}

func submitRun(cmd *cobra.Command, args []string) error {
	value, err := database.NewAmount(amount)
	if err != nil {
		return fmt.Errorf("parsing amount: %w", err)
	}

	msg, err := client().Submit(cmd.Context(), from, to, value)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
