package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) payoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payouts",
		Short: "Settle pending commissions",
	}

	var (
		cutoff string
		note   string
	)
	pay := &cobra.Command{
		Use:   "pay USER_ID",
		Short: "Mark a user's pending commissions as paid",
		Long: `Mark every pending commission of the user created at or before the
cutoff as paid, and record the run as one payout. The cutoff defaults to now.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var at time.Time
			if cutoff != "" {
				parsed, err := time.Parse(time.RFC3339, cutoff)
				if err != nil {
					return fmt.Errorf("--cutoff must be RFC3339: %w", err)
				}
				at = parsed
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			settlement, err := a.svc.Payouts.PayUserCommissions(ctx, args[0], at, note, nil)
			if err != nil {
				return err
			}
			if settlement.Count == 0 {
				fmt.Fprintf(a.out, "nothing to pay for %s\n", settlement.UserID)
				return nil
			}
			fmt.Fprintf(a.out, "payout %s: %d commissions, %s\n", settlement.PayoutID, settlement.Count, settlement.Total.StringFixed(2))
			return nil
		},
	}
	pay.Flags().StringVar(&cutoff, "cutoff", "", "Only settle commissions created at or before this RFC3339 time")
	pay.Flags().StringVar(&note, "note", "", "Free-text note stored on the payout")

	cmd.AddCommand(pay)
	return cmd
}
