// Package notion publishes monthly reports as pages in a Notion database.
package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// PageCreator is the part of the Notion API the exporter needs.
// This interface enables mocking and testing of Notion operations.
type PageCreator interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
}

// Client is the PageCreator backed by the Notion SDK.
type Client struct {
	client *notionapi.Client
}

// NewClient creates a Client with the provided API token.
func NewClient(token string) *Client {
	return &Client{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := c.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}
