// Package rollup aggregates observation rows into monthly averages for
// charting.
package rollup

import (
	"sort"
	"time"

	"plantdash/internal/dataset"
)

// Month is a calendar month (the date truncated to year+month).
type Month struct {
	Year  int
	Month time.Month
}

func monthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Label renders the month for the chart axis, e.g. "Jan/2024".
func (m Month) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan/2006")
}

// Row is one aggregated month: the arithmetic mean of each requested metric
// over every observation falling in that month, both as a fraction and
// pre-scaled to a percentage for direct charting.
type Row struct {
	Month    Month
	Label    string
	Means    map[string]float64
	Percents map[string]float64
}

type accumulator struct {
	sum   map[string]float64
	count map[string]int
}

// Monthly partitions the table's rows by calendar month and averages each of
// the requested metrics. Rows missing a metric are excluded from that
// metric's mean only, not from the partition. When category is non-empty the
// table is filtered first. The result is ordered chronologically; an empty
// input yields an empty slice, and the caller must render a "no data"
// placeholder instead of an empty chart.
func Monthly(table *dataset.Table, metrics []string, category string) []Row {
	filtered := table.FilterCategory(category)

	buckets := make(map[Month]*accumulator)
	for _, r := range filtered.Rows {
		if r.Date.IsZero() {
			continue
		}
		m := monthOf(r.Date)
		acc, ok := buckets[m]
		if !ok {
			acc = &accumulator{sum: make(map[string]float64), count: make(map[string]int)}
			buckets[m] = acc
		}
		for _, metric := range metrics {
			if v, ok := r.Metrics[metric]; ok {
				acc.sum[metric] += v
				acc.count[metric]++
			}
		}
	}

	months := make([]Month, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].before(months[j]) })

	rows := make([]Row, 0, len(months))
	for _, m := range months {
		acc := buckets[m]
		row := Row{
			Month:    m,
			Label:    m.Label(),
			Means:    make(map[string]float64, len(metrics)),
			Percents: make(map[string]float64, len(metrics)),
		}
		for _, metric := range metrics {
			if n := acc.count[metric]; n > 0 {
				mean := acc.sum[metric] / float64(n)
				row.Means[metric] = mean
				row.Percents[metric] = mean * 100
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Labels collects the axis labels of the rollup rows, in order.
func Labels(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

// Percent collects one metric's percentage series across the rollup rows.
func Percent(rows []Row, metric string) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Percents[metric]
	}
	return out
}
