// Package boardsource provides a minimal, read-only view over the
// externally-owned job-board table. Its population (the CSV loader) is a
// Non-goal of this core; the Fleet Driver still needs something concrete
// to iterate, so this package supplies the one contract it consumes.
package boardsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Board is one row of the externally-maintained board table: columns
// Name, Type, Sector, Link, Platform.
type Board struct {
	CompanyName string
	Type        string
	Sector      string
	Link        string
	Platform    string
}

// Source lists the boards a fleet run should crawl.
type Source interface {
	List() ([]Board, error)
}

// CSVSource reads Board rows from the CSV file the external loader
// maintains. encoding/csv is stdlib: reading this table is explicitly out
// of scope for the core per the spec's Non-goals, so it's the one place
// this repo has no domain library to reach for.
type CSVSource struct {
	Path string
}

func (s CSVSource) List() ([]Board, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("boardsource: open %s: %w", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("boardsource: read header: %w", err)
	}
	col := indexOf(header)

	var boards []Board
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("boardsource: read row: %w", err)
		}

		boards = append(boards, Board{
			CompanyName: field(row, col, "Name"),
			Type:        field(row, col, "Type"),
			Sector:      field(row, col, "Sector"),
			Link:        field(row, col, "Link"),
			Platform:    field(row, col, "Platform"),
		})
	}
	return boards, nil
}

func indexOf(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		m[strings.TrimSpace(h)] = i
	}
	return m
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
