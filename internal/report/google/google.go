// Package google publishes state summary reports to a Google
// Spreadsheet using service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"enrolytics/internal/report"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base tab name without year; the year is prefixed per report so
	// one spreadsheet accumulates a tab per year.
	sheetBase string
}

var _ report.Writer = (*Client)(nil)

// NewFromEnv creates a Sheets report writer from the environment.
// Required: GOOGLE_SPREADSHEET_ID plus service-account credentials in
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: REPORT_SHEET_NAME
// (default "State Summary").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetBase := strings.TrimSpace(os.Getenv("REPORT_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "State Summary"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inlineJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inlineJSON == "" && credFile == "" {
		credFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		credentialsJSON = []byte(inlineJSON)
	case credFile != "":
		data, err := os.ReadFile(credFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// WriteSummary replaces the year's report tab with the given summary.
// The tab must already exist in the spreadsheet.
func (c *Client) WriteSummary(ctx context.Context, s report.Summary) error {
	year := s.GeneratedAt.Year()
	if year == 1 {
		year = time.Now().Year()
	}
	tab := fmt.Sprintf("%d %s", year, c.sheetBase)

	values := make([][]interface{}, 0, len(s.States)+2)
	values = append(values, []interface{}{"State", "Registrations", "Age 0-5", "Age 5-17", "Age 18+"})
	for _, st := range s.States {
		values = append(values, []interface{}{
			st.State, st.Registrations, st.Age0to5, st.Age5to17, st.Age18Plus,
		})
	}
	values = append(values, []interface{}{
		fmt.Sprintf("Generated %s from snapshot %d", s.GeneratedAt.UTC().Format(time.RFC3339), s.SnapshotID),
	})

	clearRange := fmt.Sprintf("'%s'!A:E", tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear report range %s: %w", clearRange, err)
	}

	writeRange := fmt.Sprintf("'%s'!A1", tab)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write report to %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "State summary report exported",
		"component", "report",
		"sheet_range", writeRange,
		"states", len(s.States))
	return nil
}
