package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) commissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commissions",
		Short: "Generate and inspect commissions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate ORDER_ID",
		Short: "Generate commissions for a paid order",
		Long: `Generate commissions for a paid order. Running it for an order whose
commissions already exist writes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			result, err := a.svc.Commissions.GenerateForOrder(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "order %s: %s, %d created, %d skipped\n", result.OrderID, result.Outcome, result.Created, result.Skipped)
			for _, c := range result.Entries {
				fmt.Fprintf(a.out, "  level %d  %s  %s\n", c.Level, c.UserID, c.CommissionAmount.StringFixed(2))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "payables",
		Short: "List users with pending commissions, largest balance first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			rows, err := a.svc.Reports.Payables(ctx)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(a.out, "nothing pending")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tIBO\tNAME\tPENDING\tTOTAL")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.UserID, r.IBONumber, r.Name, r.PendingCount, r.PendingTotal.StringFixed(2))
			}
			return w.Flush()
		},
	})
	return cmd
}
