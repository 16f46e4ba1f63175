package sheets

import (
	"context"
	"fmt"
	"strings"

	sheetsv4 "google.golang.org/api/sheets/v4"

	"hackfinity-intake/internal/store"
)

const dataRange = "A:AB" // 28 columns

// rangeRef builds an A1-notation range. The sheet name is quoted so
// names with spaces stay valid; embedded quotes double per A1 rules.
func (c *Client) rangeRef(a1 string) string {
	name := strings.ReplaceAll(c.sheetName, "'", "''")
	return "'" + name + "'!" + a1
}

func (c *Client) readAll(ctx context.Context) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeRef(dataRange)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeRef(dataRange), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (c *Client) updateCell(ctx context.Context, a1 string, value interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{{value}}}
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, c.rangeRef(a1), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// EnsureHeader checks cell A1 and rebuilds the header row when it is
// missing or mismatched. Runs before every append; repeating the check
// is harmless.
func (c *Client) EnsureHeader(ctx context.Context) error {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeRef("A1:AB1")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	var firstRow []interface{}
	if len(resp.Values) > 0 {
		firstRow = resp.Values[0]
	}
	if !store.NeedsHeaderRepair(firstRow) {
		return nil
	}

	// A non-empty wrong first row is data (or garbage); push it down
	// one row before writing the header on row 1.
	if len(firstRow) > 0 {
		sheetID, err := c.resolveSheetID(ctx)
		if err != nil {
			return err
		}
		_, err = c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheetsv4.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsv4.Request{{
				InsertDimension: &sheetsv4.InsertDimensionRequest{
					Range: &sheetsv4.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "ROWS",
						StartIndex: 0,
						EndIndex:   1,
					},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("insert header row: %w", err)
		}
	}

	header := make([]interface{}, len(store.Header))
	for i, h := range store.Header {
		header[i] = h
	}
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{header}}
	_, err = c.srv.Spreadsheets.Values.Update(c.spreadsheetID, c.rangeRef("A1:AB1"), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Append adds one normalized row at the end of the sheet.
func (c *Client) Append(ctx context.Context, row []interface{}) error {
	return c.appendRow(ctx, row)
}

// ListRows returns the header row followed by all registration rows.
func (c *Client) ListRows(ctx context.Context) ([][]interface{}, error) {
	return c.readAll(ctx)
}

// SetPaymentCompleted flips the Payment Completed cell to "Yes" for
// every row whose Email column matches.
func (c *Client) SetPaymentCompleted(ctx context.Context, email string) (bool, error) {
	values, err := c.readAll(ctx)
	if err != nil {
		return false, err
	}
	matched := false
	for i := 1; i < len(values); i++ {
		if get(values[i], store.ColEmail) != email {
			continue
		}
		a1 := fmt.Sprintf("Z%d", i+1) // Payment Completed column
		if err := c.updateCell(ctx, a1, "Yes"); err != nil {
			return matched, err
		}
		matched = true
	}
	return matched, nil
}

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}
