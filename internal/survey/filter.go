package survey

import "strings"

// AllTeachers selects every teacher when present in Filter.Teachers.
const AllTeachers = "All"

// Filter narrows a survey to a class-year range and a set of teachers.
type Filter struct {
	StartYear *int     `json:"start_year,omitempty"`
	EndYear   *int     `json:"end_year,omitempty"`
	Teachers  []string `json:"teachers,omitempty"`
}

func (f Filter) allTeachers() bool {
	if len(f.Teachers) == 0 {
		return true
	}
	for _, t := range f.Teachers {
		if t == AllTeachers {
			return true
		}
	}
	return false
}

// Apply returns the rows matching the filter. A row with an unparseable year is
// dropped whenever a year bound is set.
func (f Filter) Apply(t *Table) (*Table, error) {
	out := t

	if f.StartYear != nil || f.EndYear != nil {
		yi, err := t.columnIndex(ColYear)
		if err != nil {
			return nil, err
		}
		out = out.where(func(row []string) bool {
			y, ok := ParseYear(row[yi])
			if !ok {
				return false
			}
			if f.StartYear != nil && y < *f.StartYear {
				return false
			}
			if f.EndYear != nil && y > *f.EndYear {
				return false
			}
			return true
		})
	}

	if !f.allTeachers() {
		ti, err := t.columnIndex(ColTeacher)
		if err != nil {
			return nil, err
		}
		wanted := make(map[string]struct{}, len(f.Teachers))
		for _, name := range f.Teachers {
			wanted[strings.TrimSpace(name)] = struct{}{}
		}
		out = out.where(func(row []string) bool {
			_, ok := wanted[strings.TrimSpace(row[ti])]
			return ok
		})
	}

	return out, nil
}
