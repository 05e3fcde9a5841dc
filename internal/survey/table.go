package survey

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"survey-analyzer/internal/models"
)

// Column names read from the survey sheet. Matching is exact.
const (
	ColClassType    = "Class Type"
	ColTeacher      = "Teacher Name"
	ColYear         = "Class End Date (year)"
	ColLocationType = "Class Location Type"
	ColCity         = "City"
	ColState        = "State"
)

// Free-text columns analysed by default.
const (
	ColBiggestObstacle = "Biggest Obstacle To Healthy Eating"
	ColFavoritePart    = "Favorite Part Of The Class"
	ColSuggestions     = "Suggestions For Improvement"
)

// MissingColumnError reports a required column absent from the sheet.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("survey: missing required column %q", e.Column)
}

// Table is a rectangular sheet of string cells with named columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable builds a table. Short rows are padded with empty cells.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, 0, len(rows)),
	}
	for i, c := range columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	for _, r := range rows {
		t.rows = append(t.rows, pad(r, len(columns)))
	}
	return t
}

func pad(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

// Columns returns the header names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether name is a header.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Rows returns a copy of the data rows.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (t *Table) columnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, &MissingColumnError{Column: name}
	}
	return i, nil
}

// Column returns every cell of the named column.
func (t *Table) Column(name string) ([]string, error) {
	i, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Responses returns the non-empty cells of a free-text column. Empty cells are
// unanswered questions and are left out.
func (t *Table) Responses(name string) ([]string, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if strings.TrimSpace(c) == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (t *Table) where(keep func(row []string) bool) *Table {
	out := &Table{columns: t.columns, index: t.index}
	for _, row := range t.rows {
		if keep(row) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// ParseYear reads a year cell such as "2019" or "2019.0".
func ParseYear(cell string) (int, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	if y, err := strconv.Atoi(cell); err == nil {
		return y, true
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// YearRange returns the smallest and largest parseable year. ok is false when no
// row has a year.
func YearRange(t *Table) (minYear, maxYear int, ok bool, err error) {
	years, err := t.Column(ColYear)
	if err != nil {
		return 0, 0, false, err
	}
	for _, cell := range years {
		y, parsed := ParseYear(cell)
		if !parsed {
			continue
		}
		if !ok || y < minYear {
			minYear = y
		}
		if !ok || y > maxYear {
			maxYear = y
		}
		ok = true
	}
	return minYear, maxYear, ok, nil
}

// Teachers returns the distinct non-empty teacher names, sorted.
func Teachers(t *Table) ([]string, error) {
	names, err := t.Column(ColTeacher)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// ClassLocations extracts one record per row from the location columns. Cells are
// taken as written. Rows with neither city nor state are skipped and rows without a
// parseable year keep Year as zero.
func ClassLocations(t *Table) ([]models.ClassLocation, error) {
	cols := []string{ColClassType, ColTeacher, ColYear, ColLocationType, ColCity, ColState}
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, err := t.columnIndex(c)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}

	out := make([]models.ClassLocation, 0, len(t.rows))
	for _, row := range t.rows {
		if strings.TrimSpace(row[idx[4]]) == "" && strings.TrimSpace(row[idx[5]]) == "" {
			continue
		}
		year, _ := ParseYear(row[idx[2]])
		out = append(out, models.ClassLocation{
			ClassType:    row[idx[0]],
			Teacher:      row[idx[1]],
			Year:         year,
			LocationType: row[idx[3]],
			City:         row[idx[4]],
			State:        row[idx[5]],
		})
	}
	return out, nil
}
