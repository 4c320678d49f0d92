package sheets

import (
	"context"
	"errors"

	"gridscout/internal/store"
)

// TabReader reads one tab of a spreadsheet into records. GoogleReader
// implements it; tests substitute fakes.
type TabReader interface {
	ReadTab(ctx context.Context, spreadsheetID, tab string) ([]Record, error)
}

// Source supplies scouting rows for one event.
type Source interface {
	MatchRecords(ctx context.Context) ([]Record, error)
	SuperRecords(ctx context.Context) ([]Record, error)
}

// ConfigSource is the slice of the relational store the resolver needs.
type ConfigSource interface {
	GetSheetConfig(ctx context.Context, eventKey string) (*store.SheetConfig, error)
}

// ResolveSource picks the scouting input for a dataset build: an explicit
// workbook wins, then the event's sheet configuration, then none.
func ResolveSource(ctx context.Context, configs ConfigSource, reader TabReader, eventKey, workbookPath, matchTab, superTab string) (Source, error) {
	if workbookPath != "" {
		return NewWorkbookSource(workbookPath, matchTab, superTab), nil
	}
	if reader == nil {
		return nil, nil
	}
	cfg, err := configs.GetSheetConfig(ctx, eventKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return NewSheetSource(reader, cfg.SpreadsheetID, cfg.MatchTab, cfg.SuperTab), nil
}

// SheetSource feeds the dataset builder from a configured Google
// spreadsheet. An empty tab name skips that record type.
type SheetSource struct {
	reader        TabReader
	spreadsheetID string
	matchTab      string
	superTab      string
}

// NewSheetSource binds a reader to one event's spreadsheet configuration.
func NewSheetSource(reader TabReader, spreadsheetID, matchTab, superTab string) *SheetSource {
	return &SheetSource{
		reader:        reader,
		spreadsheetID: spreadsheetID,
		matchTab:      matchTab,
		superTab:      superTab,
	}
}

// MatchRecords reads the match scouting tab.
func (s *SheetSource) MatchRecords(ctx context.Context) ([]Record, error) {
	if s.matchTab == "" {
		return nil, nil
	}
	return s.reader.ReadTab(ctx, s.spreadsheetID, s.matchTab)
}

// SuperRecords reads the superscouting tab.
func (s *SheetSource) SuperRecords(ctx context.Context) ([]Record, error) {
	if s.superTab == "" {
		return nil, nil
	}
	return s.reader.ReadTab(ctx, s.spreadsheetID, s.superTab)
}

// WorkbookSource feeds the dataset builder from a local .xlsx file.
type WorkbookSource struct {
	path     string
	matchTab string
	superTab string
}

// NewWorkbookSource reads scouting data from a workbook on disk.
func NewWorkbookSource(path, matchTab, superTab string) *WorkbookSource {
	return &WorkbookSource{path: path, matchTab: matchTab, superTab: superTab}
}

// MatchRecords reads the match scouting sheet. An empty tab name means the
// workbook's first sheet.
func (w *WorkbookSource) MatchRecords(_ context.Context) ([]Record, error) {
	return ReadWorkbookTab(w.path, w.matchTab)
}

// SuperRecords reads the superscouting sheet, or nothing when no tab is
// configured.
func (w *WorkbookSource) SuperRecords(_ context.Context) ([]Record, error) {
	if w.superTab == "" {
		return nil, nil
	}
	return ReadWorkbookTab(w.path, w.superTab)
}
