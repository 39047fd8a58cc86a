package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Inspect or reset commission rates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List rate rows and the active percentage per level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			rows, err := a.svc.Rates.List(ctx)
			if err != nil {
				return err
			}
			snapshot, err := a.svc.Rates.Snapshot(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LEVEL\tPERCENTAGE\tACTIVE\tID")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", r.Level, r.Percentage.String(), r.IsActive, r.ID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			for level := 1; level <= 3; level++ {
				if rate, ok := snapshot.RateFor(level); ok {
					fmt.Fprintf(a.out, "level %d pays %s%%\n", level, rate.Shift(2).String())
				} else {
					fmt.Fprintf(a.out, "level %d pays nothing\n", level)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore 10% / 5% / 2%, all active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			rows, err := a.svc.Rates.ResetToDefaults(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "reset %d levels\n", len(rows))
			return nil
		},
	})
	return cmd
}
