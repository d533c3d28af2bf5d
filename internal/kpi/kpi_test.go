package kpi

import (
	"testing"
	"time"

	"plantdash/internal/dataset"
)

func observation(date string, category string, oee float64) dataset.Row {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return dataset.Row{Date: d, Category: category, Metrics: map[string]float64{"OEE": oee}}
}

func table(rows ...dataset.Row) *dataset.Table {
	return &dataset.Table{Name: "oee", Columns: []string{"Data", "Linha", "OEE"}, Rows: rows}
}

func options() Options {
	return Options{Metric: "OEE", Target: 0.77, Roles: []string{"SMT", "IM"}}
}

func TestComputeSelectsLatestObservation(t *testing.T) {
	cards := Compute(table(
		observation("2024-01-01", "A", 0.80),
		observation("2024-02-01", "A", 0.90),
	), options())

	if cards[0].Value != "90.0%" {
		t.Fatalf("expected latest value 90.0%%, got %s", cards[0].Value)
	}
}

func TestTieOnDateBrokenByInputOrder(t *testing.T) {
	cards := Compute(table(
		observation("2024-02-01", "A", 0.80),
		observation("2024-02-01", "A", 0.85),
	), options())

	if cards[0].Value != "85.0%" {
		t.Fatalf("expected last-occurring row to win, got %s", cards[0].Value)
	}
}

func TestRoleAssignmentIndependentOfRowOrder(t *testing.T) {
	// "Linha 2" appears first in the input; the lexicographic roster still
	// assigns "Linha 1" to the first role.
	cards := Compute(table(
		observation("2024-01-01", "Linha 2", 0.70),
		observation("2024-01-01", "Linha 1", 0.90),
	), options())

	if cards[0].Title != "OEE SMT" || cards[0].Value != "90.0%" {
		t.Fatalf("expected SMT to take Linha 1's value, got %s=%s", cards[0].Title, cards[0].Value)
	}
	if cards[1].Title != "OEE IM" || cards[1].Value != "70.0%" {
		t.Fatalf("expected IM to take Linha 2's value, got %s=%s", cards[1].Title, cards[1].Value)
	}
}

func TestCategoryWithoutMetricLeavesRoster(t *testing.T) {
	// "Linha 1" has rows but never carries the metric; "Linha 2" shifts up
	// into the first role instead of sitting behind an undefined value.
	blank := dataset.Row{
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Category: "Linha 1",
		Metrics:  map[string]float64{},
	}
	cards := Compute(table(
		blank,
		observation("2024-01-01", "Linha 2", 0.70),
	), options())

	if cards[0].Title != "OEE SMT" || cards[0].Value != "70.0%" {
		t.Fatalf("expected Linha 2 to fill SMT, got %s=%s", cards[0].Title, cards[0].Value)
	}
	if cards[1].Value != "70.0%" {
		t.Fatalf("expected the single remaining category to fill IM too, got %s", cards[1].Value)
	}
}

func TestSingleCategoryFillsBothRoles(t *testing.T) {
	cards := Compute(table(observation("2024-01-01", "Linha 1", 0.85)), options())

	if cards[0].Value != cards[1].Value {
		t.Fatalf("expected both roles to share the value, got %s and %s", cards[0].Value, cards[1].Value)
	}
	if cards[0].IsPositive != cards[1].IsPositive {
		t.Fatal("expected both roles to share the pass/fail flag")
	}
	if !cards[0].IsPositive {
		t.Fatal("0.85 against target 0.77 should be positive")
	}
}

func TestEmptyTableYieldsZeroedCards(t *testing.T) {
	cards := Compute(table(), options())

	for _, card := range cards {
		if card.Value != "0.0%" {
			t.Fatalf("expected 0.0%%, got %s", card.Value)
		}
		if card.IsPositive {
			t.Fatalf("card %s should be below target", card.Title)
		}
		if card.DeltaLabel != "Below target" {
			t.Fatalf("unexpected delta label %q", card.DeltaLabel)
		}
	}
}

func TestRoleMapOverridesPositionalAssignment(t *testing.T) {
	opt := options()
	opt.RoleMap = map[string]string{"Linha 1": "IM", "Linha 2": "SMT"}

	cards := Compute(table(
		observation("2024-01-01", "Linha 1", 0.90),
		observation("2024-01-01", "Linha 2", 0.70),
	), opt)

	if cards[0].Title != "OEE SMT" || cards[0].Value != "70.0%" {
		t.Fatalf("expected mapped SMT value 70.0%%, got %s=%s", cards[0].Title, cards[0].Value)
	}
	if cards[1].Value != "90.0%" {
		t.Fatalf("expected mapped IM value 90.0%%, got %s", cards[1].Value)
	}
}

func TestCardFormatting(t *testing.T) {
	opt := options()
	opt.DecimalComma = true

	cards := Compute(table(observation("2024-01-01", "Linha 1", 0.812)), opt)

	card := cards[0]
	if card.Value != "81,2%" {
		t.Fatalf("expected comma-formatted value, got %s", card.Value)
	}
	if card.Target != "Target ≥ 77%" {
		t.Fatalf("unexpected target descriptor %q", card.Target)
	}
	if card.Delta != "+4,2%" {
		t.Fatalf("expected delta +4,2%%, got %s", card.Delta)
	}
	if card.DeltaLabel != "Above target" {
		t.Fatalf("unexpected delta label %q", card.DeltaLabel)
	}
}

func TestZeroedMatchesEmptyCompute(t *testing.T) {
	opt := options()
	fromEmpty := Compute(table(), opt)
	zeroed := Zeroed(opt)

	if len(fromEmpty) != len(zeroed) {
		t.Fatalf("length mismatch: %d vs %d", len(fromEmpty), len(zeroed))
	}
	for i := range zeroed {
		if fromEmpty[i] != zeroed[i] {
			t.Fatalf("card %d differs: %+v vs %+v", i, fromEmpty[i], zeroed[i])
		}
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	in := table(
		observation("2024-01-01", "Linha 1", 0.812),
		observation("2024-02-01", "Linha 2", 0.701),
	)
	opt := options()

	first := Compute(in, opt)
	second := Compute(in, opt)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected byte-identical cards, got %+v vs %+v", first[i], second[i])
		}
	}
}
