// Package kpi derives the summary cards: the most recent observation of a
// metric per category, mapped onto fixed display roles and compared against
// a target fraction.
package kpi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"plantdash/internal/dataset"
)

// Card is one rendered KPI: formatted strings ready for the front end.
type Card struct {
	Title      string `json:"title"`
	Value      string `json:"value"`
	Target     string `json:"target"`
	DeltaLabel string `json:"delta_label"`
	Delta      string `json:"delta_value"`
	IsPositive bool   `json:"is_positive"`
}

// Options parameterize a KPI computation.
type Options struct {
	// Metric is the canonical metric column to summarize, e.g. "OEE".
	Metric string
	// Target is the pass/fail threshold as a fraction in [0, 1].
	Target float64
	// Roles are the display role labels, in card order.
	Roles []string
	// RoleMap maps a category to a role label. When empty, the legacy
	// positional assignment is used: the lexicographically first category
	// becomes Roles[0], the second becomes Roles[1].
	RoleMap map[string]string
	// DecimalComma formats "81,2%" instead of "81.2%".
	DecimalComma bool
}

// Compute returns one card per role, derived from the latest observation of
// the metric for the role's category. Rows are ordered by date ascending
// with a stable sort, so on equal dates the last-occurring input row wins.
//
// Only categories with at least one row carrying the metric enter the roster
// used for positional role assignment. A category whose cells for the metric
// are all blank is skipped entirely rather than claiming a role with an
// undefined value, so the remaining categories shift up one position.
func Compute(table *dataset.Table, opt Options) []Card {
	last := make(map[string]float64)
	for _, row := range table.SortedByDate() {
		if v, ok := row.Metrics[opt.Metric]; ok {
			last[row.Category] = v
		}
	}

	roster := make([]string, 0, len(last))
	for cat := range last {
		roster = append(roster, cat)
	}
	sort.Strings(roster)

	values := roleValues(roster, last, opt)

	cards := make([]Card, 0, len(opt.Roles))
	for _, role := range opt.Roles {
		cards = append(cards, newCard(opt.Metric+" "+role, values[role], opt))
	}
	return cards
}

// Zeroed returns the fail-soft card set: every role at 0.0 and below target.
// The HTTP boundary substitutes it when a load fails.
func Zeroed(opt Options) []Card {
	cards := make([]Card, 0, len(opt.Roles))
	for _, role := range opt.Roles {
		cards = append(cards, newCard(opt.Metric+" "+role, 0, opt))
	}
	return cards
}

func roleValues(roster []string, last map[string]float64, opt Options) map[string]float64 {
	values := make(map[string]float64, len(opt.Roles))

	if len(opt.RoleMap) > 0 {
		for _, cat := range roster {
			if role, ok := opt.RoleMap[cat]; ok {
				values[role] = last[cat]
			}
		}
		return values
	}

	// Legacy positional mode: first sorted category takes the first role,
	// second takes the second. A single category fills both roles.
	if len(roster) == 0 {
		return values
	}
	first := last[roster[0]]
	second := first
	if len(roster) > 1 {
		second = last[roster[1]]
	}
	if len(opt.Roles) > 0 {
		values[opt.Roles[0]] = first
	}
	if len(opt.Roles) > 1 {
		values[opt.Roles[1]] = second
	}
	return values
}

func newCard(title string, fraction float64, opt Options) Card {
	valuePct := fraction * 100
	targetPct := opt.Target * 100
	deltaPct := valuePct - targetPct

	isPositive := fraction >= opt.Target
	deltaLabel := "Below target"
	if isPositive {
		deltaLabel = "Above target"
	}

	return Card{
		Title:      title,
		Value:      FormatPercent(valuePct, opt.DecimalComma),
		Target:     fmt.Sprintf("Target ≥ %.0f%%", targetPct),
		DeltaLabel: deltaLabel,
		Delta:      formatSigned(deltaPct, opt.DecimalComma),
		IsPositive: isPositive,
	}
}

// FormatPercent renders a percentage value to one decimal with the
// configured separator, suffixed "%".
func FormatPercent(pct float64, comma bool) string {
	s := strconv.FormatFloat(pct, 'f', 1, 64)
	if comma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s + "%"
}

func formatSigned(pct float64, comma bool) string {
	s := fmt.Sprintf("%+.1f", pct)
	if comma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s + "%"
}
