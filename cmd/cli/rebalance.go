package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/logger"
	"github.com/dvloznov/profit-tracker/internal/split"
	"github.com/dvloznov/profit-tracker/internal/store"
)

func newRebalanceCmd(c *cli) *cobra.Command {
	var (
		from   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "rebalance <bucket> <value>",
		Short: "Set one bucket of the profit split and rescale the others",
		Long: `Set one bucket to a new percentage. The remaining buckets are rescaled
in proportion to their current values so the split keeps summing to 100.

Buckets: owner_pay, reinvestment, savings, tax_reserve

Examples:
  profit-tracker rebalance savings 35
  profit-tracker rebalance tax_reserve 25 --from 40/30/20/10`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := domain.ParseBucket(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("value must be an integer percentage: %w", err)
			}

			if from != "" {
				current, err := parseSplit(from)
				if err != nil {
					return err
				}
				printRebalance(c, current, split.Rebalance(current, bucket, value))
				return nil
			}

			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				current, err := repo.GetSplit(ctx, c.userID)
				if err != nil {
					return err
				}
				next := split.Rebalance(current, bucket, value)
				if !dryRun {
					if err := repo.SaveSplit(ctx, c.userID, next); err != nil {
						return err
					}
					log := logger.FromContext(ctx)
					log.Debug().
						Str("user_id", c.userID).
						Str("split", next.String()).
						Msg("Split saved")
				}
				printRebalance(c, current, next)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "rebalance this split (a/b/c/d) instead of the stored one; nothing is saved")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the result without saving it")

	return cmd
}

// parseSplit reads the owner_pay/reinvestment/savings/tax_reserve form
// printed by AllocationSplit.String.
func parseSplit(s string) (domain.AllocationSplit, error) {
	parts := strings.Split(s, "/")
	if len(parts) != len(domain.Buckets) {
		return domain.AllocationSplit{}, fmt.Errorf("split %q must have %d parts separated by '/'", s, len(domain.Buckets))
	}

	var out domain.AllocationSplit
	for i, b := range domain.Buckets {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return domain.AllocationSplit{}, fmt.Errorf("split %q: %s is not an integer", s, b)
		}
		out = out.With(b, v)
	}
	if err := out.Validate(); err != nil {
		return domain.AllocationSplit{}, err
	}
	return out, nil
}

func printRebalance(c *cli, before, after domain.AllocationSplit) {
	w := newTable(c.out)
	fmt.Fprintln(w, "BUCKET\tBEFORE\tAFTER")
	for _, b := range domain.Buckets {
		fmt.Fprintf(w, "%s\t%d\t%d\n", b, before.Get(b), after.Get(b))
	}
	w.Flush()
}
