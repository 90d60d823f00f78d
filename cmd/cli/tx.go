package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/store"
)

func newTxCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and list ledger transactions",
		Long: `Record and list ledger transactions.

Examples:
  profit-tracker tx add --kind income --amount 1200 --date 2024-03-04 --desc "Invoice 42"
  profit-tracker tx list --from 2024-03-01 --to 2024-03-31
  profit-tracker tx rm <id>`,
	}

	cmd.AddCommand(newTxAddCmd(c), newTxListCmd(c), newTxRmCmd(c))
	return cmd
}

func newTxAddCmd(c *cli) *cobra.Command {
	var amount, kind, date, desc, category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := c.newTransaction(amount, kind, date, desc, category)
			if err != nil {
				return err
			}
			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				if err := repo.InsertTransaction(ctx, tx); err != nil {
					return err
				}
				fmt.Fprintln(c.out, tx.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, always positive (required)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "income or expense (required)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "transaction date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("kind")

	return cmd
}

func (c *cli) newTransaction(amount, kind, date, desc, category string) (*domain.Transaction, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	k, err := domain.ParseKind(kind)
	if err != nil {
		return nil, err
	}

	now := c.now()
	day := domain.DayOf(now)
	if date != "" {
		day, err = time.ParseInLocation("2006-01-02", date, now.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	tx := &domain.Transaction{
		ID:          uuid.New().String(),
		UserID:      c.userID,
		Amount:      amt,
		Kind:        k,
		Date:        day,
		Description: desc,
		Category:    category,
		CreatedAt:   now,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func newTxListCmd(c *cli) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, optionally within an inclusive date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				var (
					txs []*domain.Transaction
					err error
				)
				if from == "" && to == "" {
					txs, err = repo.ListTransactions(ctx, c.userID)
				} else {
					var start, end time.Time
					start, end, err = c.dateRange(from, to)
					if err != nil {
						return err
					}
					txs, err = repo.ListTransactionsBetween(ctx, c.userID, start, end)
				}
				if err != nil {
					return err
				}
				printTransactions(c.out, txs)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD")

	return cmd
}

// dateRange turns inclusive calendar days into a half-open range.
func (c *cli) dateRange(from, to string) (time.Time, time.Time, error) {
	loc := c.now().Location()
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, loc)
	end := domain.DayOf(c.now()).AddDate(100, 0, 0)
	if from != "" {
		d, err := time.ParseInLocation("2006-01-02", from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q", from)
		}
		start = d
	}
	if to != "" {
		d, err := time.ParseInLocation("2006-01-02", to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q", to)
		}
		end = d.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must not be after --to")
	}
	return start, end, nil
}

func printTransactions(out io.Writer, txs []*domain.Transaction) {
	w := newTable(out)
	fmt.Fprintln(w, "DATE\tKIND\tAMOUNT\tCATEGORY\tDESCRIPTION\tID")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Date.Format("2006-01-02"), tx.Kind, tx.Amount.StringFixed(2), tx.Category, tx.Description, tx.ID)
	}
	w.Flush()
}

func newTxRmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				return repo.DeleteTransaction(ctx, c.userID, args[0])
			})
		},
	}
}
