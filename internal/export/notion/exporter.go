package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/profit-tracker/internal/report"
)

// Exporter creates one Notion page per report.
type Exporter struct {
	pages      PageCreator
	databaseID string
}

func NewExporter(pages PageCreator, databaseID string) *Exporter {
	return &Exporter{pages: pages, databaseID: databaseID}
}

// Export implements report.Exporter and returns the page URL.
func (e *Exporter) Export(ctx context.Context, r *report.Report) (string, error) {
	page, err := e.pages.CreatePage(ctx, e.databaseID, ReportProperties(r))
	if err != nil {
		return "", fmt.Errorf("Export: %w", err)
	}
	if page.URL != "" {
		return page.URL, nil
	}
	return "notion://" + string(page.ID), nil
}

// ReportProperties maps a report onto the columns of the reports database.
func ReportProperties(r *report.Report) notionapi.Properties {
	d := r.Dashboard
	start := notionapi.Date(r.Period.From)

	return notionapi.Properties{
		"Report": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: "Report " + r.Month()},
				},
			},
		},
		"Report ID": richText(r.ID),
		"User":      richText(r.UserID),
		"Month": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start},
		},
		"Revenue":        number(d.Month.Revenue),
		"Expenses":       number(d.Month.Expenses),
		"Profit":         number(d.Month.Profit),
		"Cash Reserve":   number(d.DisplayBalance),
		"Owner Pay %":    notionapi.NumberProperty{Number: float64(d.Split.OwnerPay)},
		"Reinvestment %": notionapi.NumberProperty{Number: float64(d.Split.Reinvestment)},
		"Savings %":      notionapi.NumberProperty{Number: float64(d.Split.Savings)},
		"Tax Reserve %":  notionapi.NumberProperty{Number: float64(d.Split.TaxReserve)},
		"Transactions":   notionapi.NumberProperty{Number: float64(d.Month.Count)},
		"Owner Pay":      number(d.Allocation.OwnerPay),
		"Tax Set Aside":  number(d.Allocation.TaxReserve),
	}
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: s},
			},
		},
	}
}

func number(d decimal.Decimal) notionapi.NumberProperty {
	return notionapi.NumberProperty{Number: d.InexactFloat64()}
}
