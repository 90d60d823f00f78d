package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/store"
)

func newGoalCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage growth savings goals",
	}

	cmd.AddCommand(newGoalAddCmd(c), newGoalListCmd(c), newGoalRmCmd(c))
	return cmd
}

func newGoalAddCmd(c *cli) *cobra.Command {
	var name, target, deadline string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a savings goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(target)
			if err != nil {
				return fmt.Errorf("invalid target %q: %w", target, err)
			}
			now := c.now()
			g := &domain.Goal{
				ID:        uuid.New().String(),
				UserID:    c.userID,
				Name:      name,
				Target:    amt,
				CreatedAt: now,
			}
			if deadline != "" {
				d, err := time.ParseInLocation("2006-01-02", deadline, now.Location())
				if err != nil {
					return fmt.Errorf("invalid deadline %q, expected YYYY-MM-DD", deadline)
				}
				g.Deadline = &d
			}
			if err := g.Validate(); err != nil {
				return err
			}

			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				if err := repo.InsertGoal(ctx, g); err != nil {
					return err
				}
				fmt.Fprintln(c.out, g.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "goal name (required)")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target amount (required)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline YYYY-MM-DD")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("target")

	return cmd
}

func newGoalListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List savings goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				goals, err := repo.ListGoals(ctx, c.userID)
				if err != nil {
					return err
				}
				w := newTable(c.out)
				fmt.Fprintln(w, "NAME\tTARGET\tDEADLINE\tID")
				for _, g := range goals {
					deadline := "-"
					if g.Deadline != nil {
						deadline = g.Deadline.Format("2006-01-02")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Name, g.Target.StringFixed(2), deadline, g.ID)
				}
				return w.Flush()
			})
		},
	}
}

func newGoalRmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				return repo.DeleteGoal(ctx, c.userID, args[0])
			})
		},
	}
}
