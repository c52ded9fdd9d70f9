package boardsource

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boards.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestListParsesRows(t *testing.T) {
	path := writeCSV(t, "Name,Type,Sector,Link,Platform\n"+
		"Acme,Company,Tech,https://boards.greenhouse.io/acme,greenhouse\n"+
		"Globex,Aggregate,Industrial,https://globex.wd1.myworkdayjobs.com/careers,workday\n")

	boards, err := CSVSource{Path: path}.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("List() returned %d boards, want 2", len(boards))
	}

	want := Board{CompanyName: "Acme", Type: "Company", Sector: "Tech", Link: "https://boards.greenhouse.io/acme", Platform: "greenhouse"}
	if boards[0] != want {
		t.Errorf("boards[0] = %+v, want %+v", boards[0], want)
	}
}

func TestListHandlesReorderedColumns(t *testing.T) {
	path := writeCSV(t, "Platform,Link,Name,Type,Sector\n"+
		"workday,https://acme.wd1.myworkdayjobs.com,Acme,Company,Tech\n")

	boards, err := CSVSource{Path: path}.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(boards) != 1 || boards[0].Platform != "workday" || boards[0].CompanyName != "Acme" {
		t.Errorf("List() = %+v, want column-order-independent parse", boards)
	}
}

func TestListMissingColumnYieldsEmptyField(t *testing.T) {
	path := writeCSV(t, "Name,Link,Platform\nAcme,https://acme.example/jobs,greenhouse\n")

	boards, err := CSVSource{Path: path}.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(boards) != 1 || boards[0].Sector != "" || boards[0].Type != "" {
		t.Errorf("List() = %+v, want empty Sector/Type for missing columns", boards)
	}
}

func TestListMissingFileReturnsError(t *testing.T) {
	_, err := CSVSource{Path: filepath.Join(t.TempDir(), "missing.csv")}.List()
	if err == nil {
		t.Fatal("List() error = nil, want error for missing file")
	}
}

func TestListEmptyBody(t *testing.T) {
	path := writeCSV(t, "Name,Type,Sector,Link,Platform\n")

	boards, err := CSVSource{Path: path}.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(boards) != 0 {
		t.Errorf("List() = %+v, want empty slice", boards)
	}
}
