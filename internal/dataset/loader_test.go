package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeWorkbook(t *testing.T, dir, file string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	path := filepath.Join(dir, file)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func oeeSpec() Spec {
	return Spec{
		Name:     "oee",
		File:     "oee.xlsx",
		Required: []string{"data", "linha", "oee"},
		Rename:   map[string]string{"data": "Data", "linha": "Linha", "oee": "OEE"},
		Date:     "data",
		Category: "linha",
		Fractions: []string{
			"OEE",
		},
	}
}

func testLoader(dir string) *Loader {
	return New(dir, nil, zap.NewNop())
}

func TestLoadNormalizesHeaders(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "oee.xlsx", [][]interface{}{
		{" Data ", "LINHA", "Oee"},
		{"2024-01-15", "Linha 1", 0.81},
	})

	table, err := testLoader(dir).Load(oeeSpec())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"Data", "Linha", "OEE"}
	if !reflect.DeepEqual(table.Columns, want) {
		t.Fatalf("expected canonical columns %v, got %v", want, table.Columns)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	row := table.Rows[0]
	if row.Category != "Linha 1" {
		t.Fatalf("expected category 'Linha 1', got %q", row.Category)
	}
	if row.Metrics["OEE"] != 0.81 {
		t.Fatalf("expected OEE 0.81, got %v", row.Metrics["OEE"])
	}
	if row.Date != time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected date: %v", row.Date)
	}
}

func TestLoadReportsMissingColumnsExactly(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "oee.xlsx", [][]interface{}{
		{"data", "oee"},
		{"2024-01-15", 0.81},
	})

	_, err := testLoader(dir).Load(oeeSpec())
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if !reflect.DeepEqual(missing.Columns, []string{"linha"}) {
		t.Fatalf("expected exactly [linha], got %v", missing.Columns)
	}
}

func TestLoadSourceNotFound(t *testing.T) {
	_, err := testLoader(t.TempDir()).Load(oeeSpec())
	var notFound *SourceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SourceNotFoundError, got %v", err)
	}
}

func TestLoadRejectsOutOfRangeFraction(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "oee.xlsx", [][]interface{}{
		{"data", "linha", "oee"},
		{"2024-01-15", "Linha 1", 1.2},
	})

	_, err := testLoader(dir).Load(oeeSpec())
	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
	if oor.Column != "OEE" || oor.Value != 1.2 {
		t.Fatalf("unexpected error detail: %+v", oor)
	}
}

func TestLoadRejectsUnparseableDate(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "oee.xlsx", [][]interface{}{
		{"data", "linha", "oee"},
		{"sometime", "Linha 1", 0.8},
	})

	_, err := testLoader(dir).Load(oeeSpec())
	var invalid *InvalidDateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDateError, got %v", err)
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "oee.xlsx", [][]interface{}{
		{"data", "linha", "oee"},
		{"2024-01-15", "Linha 1", 0.81},
		{"2024-02-10", "Linha 2", 0.74},
	})

	loader := testLoader(dir)
	first, err := loader.Load(oeeSpec())
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := loader.Load(oeeSpec())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical tables from an unchanged file")
	}
}

func TestCacheInvalidatesOnModTime(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "oee.xlsx", [][]interface{}{
		{"data", "linha", "oee"},
		{"2024-01-15", "Linha 1", 0.81},
	})

	cache := NewCache(testLoader(dir))
	table, err := cache.Load(oeeSpec())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table.Rows[0].Metrics["OEE"] != 0.81 {
		t.Fatalf("expected 0.81, got %v", table.Rows[0].Metrics["OEE"])
	}

	// Unchanged file serves the same table.
	again, err := cache.Load(oeeSpec())
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if again != table {
		t.Fatal("expected the cached table pointer for an unchanged file")
	}

	// Rewrite with a new value and a newer mtime.
	writeWorkbook(t, dir, "oee.xlsx", [][]interface{}{
		{"data", "linha", "oee"},
		{"2024-01-15", "Linha 1", 0.9},
	})
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh, err := cache.Load(oeeSpec())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Rows[0].Metrics["OEE"] != 0.9 {
		t.Fatalf("expected reloaded value 0.9, got %v", fresh.Rows[0].Metrics["OEE"])
	}
}
