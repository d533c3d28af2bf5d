package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Source is anything that can resolve a dataset spec into a table. Both the
// Loader and the Cache satisfy it; handlers depend on this interface.
type Source interface {
	Load(spec Spec) (*Table, error)
}

// Loader reads spreadsheets from a directory. It is stateless: every call
// re-reads the file, and reading the same file twice yields identical
// tables.
type Loader struct {
	dir     string
	layouts []string
	log     *zap.Logger
}

// New creates a Loader rooted at dir. layouts are the accepted string date
// formats, tried in order after the raw Excel serial form.
func New(dir string, layouts []string, log *zap.Logger) *Loader {
	if len(layouts) == 0 {
		layouts = []string{"2006-01-02", "02/01/2006"}
	}
	return &Loader{dir: dir, layouts: layouts, log: log}
}

// Path returns the absolute location of the spec's file.
func (l *Loader) Path(spec Spec) string {
	return filepath.Join(l.dir, spec.File)
}

// Load opens the spec's spreadsheet, normalizes its header, checks the
// required column set, and coerces dates, categories and metrics.
func (l *Loader) Load(spec Spec) (*Table, error) {
	path := l.Path(spec)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &SourceNotFoundError{Path: path}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheet := spec.Sheet
	if sheet == "" {
		sheet = f.GetSheetList()[0]
	}

	// Raw cell values keep dates as Excel serial numbers instead of
	// locale-formatted strings.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var header []string
	if len(rows) > 0 {
		header = normalizeHeader(rows[0])
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	var missing []string
	for _, col := range spec.Required {
		if _, ok := index[strings.ToLower(strings.TrimSpace(col))]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Dataset: spec.Name, Columns: missing}
	}

	fractions := make(map[string]bool, len(spec.Fractions))
	for _, name := range spec.Fractions {
		fractions[name] = true
	}
	labels := make(map[string]bool, len(spec.Labels))
	for _, name := range spec.Labels {
		labels[name] = true
	}

	table := &Table{Name: spec.Name}
	for _, name := range header {
		if name == "" {
			continue
		}
		table.Columns = append(table.Columns, spec.Canonical(name))
	}

	if len(rows) < 2 {
		return table, nil
	}

	for i, raw := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		row := Row{Metrics: make(map[string]float64)}
		empty := true

		for _, name := range header {
			if name == "" {
				continue
			}
			cell := cellAt(raw, index[name])
			if cell == "" {
				continue
			}
			empty = false

			switch {
			case spec.Date != "" && name == spec.Date:
				date, err := l.parseDate(cell)
				if err != nil {
					return nil, &InvalidDateError{Column: name, Row: rowNum, Value: cell}
				}
				row.Date = date
			case spec.Category != "" && name == spec.Category:
				row.Category = strings.TrimSpace(cell)
			case labels[name]:
				if row.Labels == nil {
					row.Labels = make(map[string]string)
				}
				row.Labels[name] = strings.TrimSpace(cell)
			default:
				canonical := spec.Canonical(name)
				value, err := parseNumber(cell)
				if err != nil {
					l.log.Debug("Skipping non-numeric cell",
						zap.String("dataset", spec.Name),
						zap.String("column", canonical),
						zap.Int("row", rowNum),
						zap.String("value", cell))
					continue
				}
				if fractions[canonical] && (value < 0 || value > 1) {
					return nil, &OutOfRangeError{Column: canonical, Row: rowNum, Value: value}
				}
				row.Metrics[canonical] = value
			}
		}

		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return out
}

func cellAt(row []string, idx int) string {
	// excelize truncates trailing empty cells.
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (l *Loader) parseDate(cell string) (time.Time, error) {
	// Excel stores dates as serial day counts.
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	for _, layout := range l.layouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", cell)
}

func parseNumber(cell string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64)
}
