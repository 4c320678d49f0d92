// Package sheets turns scouting spreadsheets (Google Sheets ranges or local
// .xlsx workbooks) into typed records keyed by normalized header names.
package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one spreadsheet row keyed by normalized header. Cell values are
// float64, bool, or string depending on what the cell parses as.
type Record map[string]interface{}

// teamColumnNames are the headers recognized as the team-number column,
// after normalization.
var teamColumnNames = []string{"team_number", "team", "team_num", "team_no"}

// NormalizeHeader lowercases a header and collapses separators to
// underscores so "Auto Coral L4" and "auto_coral_l4" map to the same key.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '/', '.', '(', ')', '#', '?':
			return '_'
		}
		return r
	}, h)
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return strings.Trim(h, "_")
}

// parseCell types a raw cell: numbers become float64, TRUE/FALSE become
// bool, everything else stays a trimmed string.
func parseCell(raw string) interface{} {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	return s
}

// RecordsFromRows converts a raw grid (header row first) into records.
// Rows shorter than the header are padded with empty cells; fully empty rows
// are skipped.
func RecordsFromRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet has no header row")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = NormalizeHeader(h)
	}

	var records []Record
	for _, row := range rows[1:] {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		rec := make(Record, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			var raw string
			if i < len(row) {
				raw = row[i]
			}
			rec[header] = parseCell(raw)
		}
		records = append(records, rec)
	}
	return records, nil
}

// TeamNumber extracts the team number from a record, trying the recognized
// team-column aliases. Returns 0 and false when no usable column exists.
func (r Record) TeamNumber() (int, bool) {
	for _, name := range teamColumnNames {
		v, ok := r[name]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			if t > 0 {
				return int(t), true
			}
		case string:
			// Tolerate "frc254" style keys in hand-edited sheets.
			s := strings.TrimPrefix(strings.TrimSpace(t), "frc")
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}
