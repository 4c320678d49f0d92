package sheets

import (
	"context"
	"fmt"

	"gridscout/internal/logging"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// GoogleReader reads scouting data from Google Sheets using a service
// account.
type GoogleReader struct {
	svc *sheetsapi.Service
}

// NewGoogleReader creates a reader authenticated with a service-account
// credentials file.
func NewGoogleReader(ctx context.Context, credentialsFile string) (*GoogleReader, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("sheets credentials file not configured")
	}
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &GoogleReader{svc: svc}, nil
}

// ReadTab reads a whole tab ("Match Scouting" -> range "Match Scouting") and
// returns typed records. The first row is treated as the header.
func (g *GoogleReader) ReadTab(ctx context.Context, spreadsheetID, tab string) ([]Record, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %q from spreadsheet %s: %w", tab, spreadsheetID, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		rows = append(rows, cells)
	}

	logging.Get(logging.CategorySheets).Debug("read tab",
		zap.String("spreadsheet", spreadsheetID),
		zap.String("tab", tab),
		zap.Int("rows", len(rows)))

	return RecordsFromRows(rows)
}
