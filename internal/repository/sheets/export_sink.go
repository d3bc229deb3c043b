package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/telurku/internal/config"
	"github.com/mamadbah2/telurku/internal/repository"
)

// ExportSink appends dashboard exports to a tab of a Google spreadsheet.
type ExportSink struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	sheetRange    string
	logger        *zap.Logger
}

var _ repository.ExportSink = (*ExportSink)(nil)

// NewExportSink builds a sink from service-account credentials.
func NewExportSink(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*ExportSink, error) {
	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}
	return newExportSink(service, cfg, logger), nil
}

func newExportSink(service *sheetsapi.Service, cfg config.SheetsConfig, logger *zap.Logger) *ExportSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	tab := cfg.ExportSheet
	if tab == "" {
		tab = "Export"
	}
	return &ExportSink{
		values:        service.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    tab + "!A:G",
		logger:        logger,
	}
}

// AppendRows appends rows below the last filled row of the export tab.
func (s *ExportSink) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}

	call := s.values.Append(s.spreadsheetID, s.sheetRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append %d rows into range %s: %w", len(rows), s.sheetRange, err)
	}

	s.logger.Debug("rows appended to sheet", zap.String("range", s.sheetRange), zap.Int("rows", len(rows)))
	return nil
}
