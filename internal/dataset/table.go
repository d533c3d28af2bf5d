package dataset

import (
	"sort"
	"time"
)

// Row is one observation: a calendar date (zero when the dataset has no date
// column), a category, optional extra string labels, and numeric metrics
// keyed by canonical column name. A missing cell is simply absent from
// Metrics.
type Row struct {
	Date     time.Time
	Category string
	Labels   map[string]string
	Metrics  map[string]float64
}

// Table is an ordered sequence of observation rows plus the resolved
// (canonical) column set, in header order.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Categories returns the distinct category identifiers, sorted
// lexicographically.
func (t *Table) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Rows {
		if r.Category == "" {
			continue
		}
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// FilterCategory returns a table restricted to rows matching the given
// category. An empty filter returns the table unchanged.
func (t *Table) FilterCategory(category string) *Table {
	if category == "" {
		return t
	}
	filtered := &Table{Name: t.Name, Columns: t.Columns}
	for _, r := range t.Rows {
		if r.Category == category {
			filtered.Rows = append(filtered.Rows, r)
		}
	}
	return filtered
}

// SortedByDate returns a copy of the rows ordered by date ascending. The
// sort is stable: rows sharing a date keep their input order, so the
// last-occurring row still wins a tie downstream.
func (t *Table) SortedByDate() []Row {
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}
