package sheets

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbookTab reads one tab of a local .xlsx workbook into records,
// using the same header-mapping path as the Google Sheets reader. Used for
// offline events and exported spreadsheet snapshots.
func ReadWorkbookTab(path, tab string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if tab == "" {
		tab = f.GetSheetName(0)
	}

	rows, err := f.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("failed to read tab %q: %w", tab, err)
	}
	return RecordsFromRows(rows)
}

// WorkbookTabs lists the tab names of a workbook, for the import UI.
func WorkbookTabs(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
