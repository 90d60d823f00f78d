package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/report"
	"github.com/dvloznov/profit-tracker/internal/store"
	"github.com/dvloznov/profit-tracker/internal/summary"
)

func newSummaryCmd(c *cli) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard summary for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				now := c.now()
				txs, err := repo.ListTransactions(ctx, c.userID)
				if err != nil {
					return err
				}
				s, err := repo.GetSplit(ctx, c.userID)
				if err != nil {
					return err
				}
				goals, err := repo.ListGoals(ctx, c.userID)
				if err != nil {
					return err
				}

				var d summary.Dashboard
				if month == "" {
					d = summary.BuildDashboard(store.Values(txs), s, store.GoalValues(goals), now, cfg.Reserve)
				} else {
					p, err := report.ParseMonth(month, now.Location())
					if err != nil {
						return err
					}
					d = report.Build(c.userID, p, store.Values(txs), s, store.GoalValues(goals), now, cfg.Reserve).Dashboard
				}
				printDashboard(c.out, d)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "month to summarise (YYYY-MM, default current)")

	return cmd
}

func printDashboard(out io.Writer, d summary.Dashboard) {
	w := newTable(out)
	fmt.Fprintf(w, "Month\t%s\n", d.Month.Period.Label())
	fmt.Fprintf(w, "Revenue\t%s\n", d.Month.Revenue.StringFixed(2))
	fmt.Fprintf(w, "Expenses\t%s\n", d.Month.Expenses.StringFixed(2))
	fmt.Fprintf(w, "Profit\t%s\n", d.Month.Profit.StringFixed(2))
	fmt.Fprintf(w, "Cash reserve\t%s\n", d.DisplayBalance.StringFixed(0))
	fmt.Fprintf(w, "Split\t%s\n", d.Split)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "BUCKET\tPERCENT\tAMOUNT")
	for _, b := range domain.Buckets {
		fmt.Fprintf(w, "%s\t%d\t%s\n", b, d.Split.Get(b), d.Allocation.Get(b).StringFixed(2))
	}
	if len(d.Goals) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "GOAL\tTARGET\tPROGRESS")
		for _, g := range d.Goals {
			fmt.Fprintf(w, "%s\t%s\t%s%%\n", g.Goal.Name, g.Goal.Target.StringFixed(2), g.Percent.StringFixed(1))
		}
	}
	w.Flush()
}
