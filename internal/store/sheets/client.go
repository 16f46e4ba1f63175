package sheets

import (
	"context"
	"fmt"
	"os"
	"sync"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Client stores registration rows in one Google Sheets tab.
type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
	sheetName     string

	// numeric sheet ID, resolved lazily for row-insert requests;
	// guarded because intake requests run concurrently
	mu           sync.Mutex
	sheetID      int64
	sheetIDKnown bool
}

func New(serviceAccountJSONPath, spreadsheetID, sheetName string) (*Client, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	ctx := context.Background()
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func (c *Client) Name() string { return "sheets" }

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetIDKnown {
		return c.sheetID, nil
	}
	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			c.sheetID = sh.Properties.SheetId
			c.sheetIDKnown = true
			return c.sheetID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}
