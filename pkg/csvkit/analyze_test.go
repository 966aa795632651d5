package csvkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const salesCSV = `date,product,amount,quantity,active
2024-01-02,Widget A,19.99,3,true
2024-01-03,Widget B,5.50,1,false
2024-01-04,Widget A,12.00,,true
2024-01-05,Widget C,7.25,2,true
`

func TestAnalyzeInfersColumnTypes(t *testing.T) {
	path := writeCSV(t, "sales.csv", salesCSV)

	a, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.RowCount != 4 {
		t.Errorf("RowCount = %d, want 4", a.RowCount)
	}

	wantTypes := map[string]ColumnType{
		"date":     TypeDate,
		"product":  TypeString,
		"amount":   TypeFloat,
		"quantity": TypeInteger,
		"active":   TypeBool,
	}
	for i := range a.Columns {
		col := &a.Columns[i]
		if want, ok := wantTypes[col.Name]; ok && col.Type != want {
			t.Errorf("column %s: type %s, want %s", col.Name, col.Type, want)
		}
	}
}

func TestAnalyzeCountsMissingValues(t *testing.T) {
	path := writeCSV(t, "sales.csv", salesCSV)

	a, err := Analyze(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Columns {
		if a.Columns[i].Name == "quantity" {
			if a.Columns[i].Missing != 1 {
				t.Errorf("quantity missing = %d, want 1", a.Columns[i].Missing)
			}
			return
		}
	}
	t.Fatal("quantity column not found")
}

func TestAnalyzeNumericStats(t *testing.T) {
	path := writeCSV(t, "nums.csv", "value\n1\n2\n3\n4\n")

	a, err := Analyze(path)
	if err != nil {
		t.Fatal(err)
	}
	stats := a.Columns[0].Stats
	if stats == nil {
		t.Fatal("expected numeric stats")
	}
	if stats.Min != 1 || stats.Max != 4 || stats.Mean != 2.5 {
		t.Errorf("stats = %+v", *stats)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	if _, err := Analyze(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
	empty := writeCSV(t, "empty.csv", "")
	if _, err := Analyze(empty); err == nil {
		t.Error("expected error for empty file")
	}
	notCSV := writeCSV(t, "data.json", "{}")
	if _, err := Analyze(notCSV); err == nil {
		t.Error("expected error for non-csv extension")
	}
}

func TestSummaryIncludesColumnsAndErrors(t *testing.T) {
	path := writeCSV(t, "sales.csv", salesCSV)

	got := Summary([]string{path, "/nonexistent/other.csv"})
	for _, want := range []string{"File: sales.csv", "amount (float)", "product (string)", "Error analyzing"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestCompareSchemas(t *testing.T) {
	sales := writeCSV(t, "sales.csv", "product_id,amount\n1,10\n")
	products := writeCSV(t, "products.csv", "product_id,name\n1,Widget\n")

	a1, err := Analyze(sales)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := Analyze(products)
	if err != nil {
		t.Fatal(err)
	}

	common, joinKeys := CompareSchemas([]*FileAnalysis{a1, a2})
	if len(common) != 1 || common[0] != "product_id" {
		t.Errorf("common = %v", common)
	}
	if len(joinKeys) != 1 || joinKeys[0] != "product_id" {
		t.Errorf("joinKeys = %v", joinKeys)
	}
}
