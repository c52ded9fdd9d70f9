// Package store is the Store Adapter: idempotent upserts against the
// relational schema in db/migrations, with a race-safe Company lookup and
// benign-duplicate handling on Listing inserts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sqlc-dev/pqtype"

	"jobfleet/internal/domain"
)

// uniqueViolation is Postgres's SQLSTATE for a unique-constraint
// violation; every race-safe upsert in this package branches on it.
const uniqueViolation = "23505"

// Store wraps a shared, pooled *sql.DB.
type Store struct {
	DB  *sql.DB
	log *slog.Logger
}

// New wraps an already-open, pooled *sql.DB.
func New(db *sql.DB, log *slog.Logger) *Store {
	return &Store{DB: db, log: log}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ResolveCompany looks up a Company by name, creating it lazily on first
// reference. On a concurrent insert race it re-queries rather than
// treating the violation as an error.
func (s *Store) ResolveCompany(ctx context.Context, name string) (domain.Company, error) {
	company, err := s.getCompanyByName(ctx, name)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Company{}, err
	}

	row := s.DB.QueryRowContext(ctx,
		`INSERT INTO companies (name) VALUES ($1)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id, name, sector, added_at, updated_at`,
		name,
	)
	company, err = scanCompany(row)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, sql.ErrNoRows) && !isUniqueViolation(err) {
		return domain.Company{}, err
	}

	// Another crawl created it concurrently between our lookup and insert;
	// the row now exists, re-query it.
	return s.getCompanyByName(ctx, name)
}

func (s *Store) getCompanyByName(ctx context.Context, name string) (domain.Company, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, sector, added_at, updated_at FROM companies WHERE name = $1`,
		name,
	)
	return scanCompany(row)
}

func scanCompany(row *sql.Row) (domain.Company, error) {
	var c domain.Company
	var sector sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &sector, &c.AddedAt, &c.UpdatedAt); err != nil {
		return domain.Company{}, err
	}
	c.Sector = sector.String
	return c, nil
}

// GetBoardByLink looks up a JobBoard by its canonical URL. Boards are
// provisioned externally; a missing board is a hard failure for the
// record that referenced it, never auto-created here.
func (s *Store) GetBoardByLink(ctx context.Context, link string) (domain.JobBoard, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, company_id, type, platform, link, added_at, updated_at
		 FROM job_boards WHERE link = $1`,
		link,
	)

	var b domain.JobBoard
	var companyID sql.NullInt64
	if err := row.Scan(&b.ID, &companyID, &b.Type, &b.Platform, &b.Link, &b.AddedAt, &b.UpdatedAt); err != nil {
		return domain.JobBoard{}, err
	}
	if companyID.Valid {
		id := companyID.Int64
		b.CompanyID = &id
	}
	return b, nil
}

// InsertResult summarizes one batch's outcome, per the Store Adapter
// contract: a success count plus human-readable failure messages.
type InsertResult struct {
	SuccessCount int
	Failures     []string
}

// InsertBatch validates, resolves, and inserts each record independently;
// a single record's failure never aborts the batch. Every successful
// insert is committed individually, so the batch is durable by the time
// this returns.
func (s *Store) InsertBatch(ctx context.Context, boardURL string, records []domain.JobRecord) InsertResult {
	result := InsertResult{}

	for _, rec := range records {
		if err := s.insertOne(ctx, boardURL, rec); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", rec.DetailURL, err))
			continue
		}
		result.SuccessCount++
	}

	return result
}

func (s *Store) insertOne(ctx context.Context, boardURL string, rec domain.JobRecord) error {
	if rec.Title == "" || rec.CompanyName == "" || rec.DetailURL == "" || boardURL == "" {
		return fmt.Errorf("missing required field (title/company/detail url/board url)")
	}

	company, err := s.ResolveCompany(ctx, rec.CompanyName)
	if err != nil {
		return fmt.Errorf("resolve company: %w", err)
	}

	board, err := s.GetBoardByLink(ctx, boardURL)
	if err != nil {
		return fmt.Errorf("board not provisioned: %w", err)
	}

	var datePosted sql.NullTime
	if rec.DatePosted != nil {
		datePosted = sql.NullTime{Time: *rec.DatePosted, Valid: true}
	}

	extras, err := extrasJSON(rec.Extras)
	if err != nil {
		return fmt.Errorf("encode extras: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO listings
		   (company_id, job_board_id, title, job_id, location, city, country, region,
		    description, description_markdown, extras, link, date_posted)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		company.ID, board.ID, rec.Title, rec.JobID, rec.LocationText,
		rec.Location.City, rec.Location.Country, rec.Location.Region,
		rec.Description, rec.DescriptionMarkdown, extras, rec.DetailURL, datePosted,
	)
	if err != nil {
		if isUniqueViolation(err) {
			s.log.Warn("skipping duplicate listing", "link", rec.DetailURL)
			return nil
		}
		return err
	}

	return tx.Commit()
}

// extrasJSON encodes a platform's overflow fields as nullable JSON for the
// extras column; an empty map stores SQL NULL rather than "{}".
func extrasJSON(extras map[string]string) (pqtype.NullRawMessage, error) {
	if len(extras) == 0 {
		return pqtype.NullRawMessage{}, nil
	}
	raw, err := json.Marshal(extras)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// Ping checks connectivity with a 5s timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.DB.PingContext(ctx)
}
