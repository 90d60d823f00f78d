package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/reserve"
	"github.com/dvloznov/profit-tracker/internal/store"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// asOf resolves the optional --as-of flag. A bare date means the end of
// that day.
func (c *cli) asOf(flag string) (time.Time, error) {
	if flag == "" {
		return c.now(), nil
	}
	loc := c.now().Location()
	d, err := time.ParseInLocation("2006-01-02", flag, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q, expected YYYY-MM-DD", flag)
	}
	return d.AddDate(0, 0, 1).Add(-time.Second), nil
}

func newReserveCmd(c *cli) *cobra.Command {
	var (
		asOfFlag      string
		includeFuture bool
	)

	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Print the cash reserve trend",
		Long: `Sample the running cash reserve on the 1st and 15th of the previous two
months, the 1st of the current month and today.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := c.asOf(asOfFlag)
			if err != nil {
				return err
			}
			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				txs, err := repo.ListTransactions(ctx, c.userID)
				if err != nil {
					return err
				}
				opts := cfg.Reserve
				if cmd.Flags().Changed("include-future") {
					opts.IncludeFuture = includeFuture
				}
				printSamples(c.out, reserve.Sample(store.Values(txs), now, opts))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "sample as of the end of this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&includeFuture, "include-future", false, "count transactions dated after the as-of day")

	return cmd
}

func printSamples(out io.Writer, samples []domain.ReserveSample) {
	w := newTable(out)
	fmt.Fprintln(w, "DATE\tBALANCE")
	for _, s := range samples {
		fmt.Fprintf(w, "%s\t%s\n", s.Date.Format("2006-01-02"), s.Balance.StringFixed(0))
	}
	w.Flush()
}
