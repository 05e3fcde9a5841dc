package survey

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Defaults matching the layout of the lifestyle survey workbook.
const (
	DefaultSheet     = "Student Lifestyle Surveys"
	DefaultHeaderRow = 24
)

// LoadWorkbook reads sheet from an xlsx stream. headerRow is 1-based; rows above
// it are ignored and rows below it become data.
func LoadWorkbook(r io.Reader, sheet string, headerRow int) (*Table, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	if headerRow < 1 {
		return nil, fmt.Errorf("survey: invalid header row %d", headerRow)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("survey: failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("survey: sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("survey: failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("survey: sheet %q has %d rows, header expected on row %d", sheet, len(rows), headerRow)
	}

	header := rows[headerRow-1]
	var data [][]string
	for _, row := range rows[headerRow:] {
		if blank(row) {
			continue
		}
		data = append(data, row)
	}

	return NewTable(header, data), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
