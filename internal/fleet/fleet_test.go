package fleet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobfleet/internal/boardsource"
)

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.MaxConcurrent != 1 {
		t.Errorf("MaxConcurrent default = %d, want 1 (boards scraped sequentially by default)", o.MaxConcurrent)
	}

	o = Options{MaxConcurrent: 8}.withDefaults()
	if o.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d, want preserved 8", o.MaxConcurrent)
	}
}

func TestWriteCSVIncludesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	report := Report{
		RunID: "run-123",
		Boards: []BoardResult{
			{Board: boardsource.Board{Link: "https://boards.greenhouse.io/acme", Platform: "greenhouse"}, Written: 12},
			{Board: boardsource.Board{Link: "https://acme.wd1.myworkdayjobs.com", Platform: "workday"}, Err: errTest{"board unreachable"}},
		},
	}

	if err := writeCSV(path, report); err != nil {
		t.Fatalf("writeCSV() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written csv: %v", err)
	}
	content := string(raw)

	if !strings.Contains(content, "board,platform,written,error") {
		t.Errorf("csv missing header: %q", content)
	}
	if !strings.Contains(content, "https://boards.greenhouse.io/acme,greenhouse,12,") {
		t.Errorf("csv missing success row: %q", content)
	}
	if !strings.Contains(content, "board unreachable") {
		t.Errorf("csv missing error message: %q", content)
	}
}

func TestWriteCSVDefaultsPathWhenEmpty(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defaultPath := filepath.Join(wd, "fleet-report.csv")
	defer os.Remove(defaultPath)

	if err := writeCSV("", Report{RunID: "run-1"}); err != nil {
		t.Fatalf("writeCSV(\"\") error = %v", err)
	}
	if _, err := os.Stat(defaultPath); err != nil {
		t.Errorf("expected default fleet-report.csv to be created: %v", err)
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }
