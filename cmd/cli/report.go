package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/profit-tracker/internal/app"
	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/logger"
	"github.com/dvloznov/profit-tracker/internal/report"
	"github.com/dvloznov/profit-tracker/internal/store"
	"github.com/dvloznov/profit-tracker/internal/summary"
)

func newReportCmd(c *cli) *cobra.Command {
	var month, destination string
	var verify bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a monthly report and export it",
		Long: `Generate the report for one month and send it to a destination.

Destinations:
  stdout  indented JSON on standard output (default)
  gcs     a JSON object in export.gcs_bucket (--verify reads it back)
  notion  a page in export.notion_database_id`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month == "" {
				month = summary.MonthOf(c.now()).Label()
			}
			if verify && destination != app.DestinationGCS {
				return fmt.Errorf("--verify only applies to --dest %s", app.DestinationGCS)
			}
			return c.withRepo(cmd, func(ctx context.Context, cfg *config.Config, repo store.Repository) error {
				if verify {
					cfg.Export.GCSVerify = true
				}
				exporters, err := app.NewExporters(ctx, cfg.Export, c.out)
				if err != nil {
					return err
				}
				defer exporters.Close()

				gen := report.NewGenerator(repo, exporters.Map(), cfg.Reserve, logger.FromContext(ctx))
				if !gen.HasExporter(destination) {
					return fmt.Errorf("destination %q is not configured (available: %v)", destination, exporters.Names())
				}

				_, location, err := gen.Generate(ctx, c.userID, month, destination)
				if err != nil {
					return err
				}
				if destination != app.DestinationStdout {
					fmt.Fprintln(c.out, location)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "report month YYYY-MM (default current)")
	cmd.Flags().StringVar(&destination, "dest", app.DestinationStdout, "export destination: stdout, gcs or notion")
	cmd.Flags().BoolVar(&verify, "verify", false, "download the uploaded object and check it (gcs only)")

	return cmd
}
