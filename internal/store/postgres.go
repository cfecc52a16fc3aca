package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AngelCh415/threads-insights/internal/models"
	"github.com/AngelCh415/threads-insights/internal/report"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool opens a pgx pool for databaseURL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

const reportsSchema = `
CREATE TABLE IF NOT EXISTS insight_reports (
    report_id    TEXT PRIMARY KEY,
    report_type  TEXT NOT NULL,
    start_date   DATE NOT NULL,
    end_date     DATE NOT NULL,
    report_data  JSONB NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresRepository stores one JSONB document per report id.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, reportsSchema); err != nil {
		return fmt.Errorf("create insight_reports: %w", err)
	}
	return nil
}

// UpsertReport deletes and re-inserts the row in one transaction, so readers
// see either the old report or the new one.
func (r *PostgresRepository) UpsertReport(ctx context.Context, periodID string, rep models.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", periodID, err)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM insight_reports WHERE report_id = $1`, periodID); err != nil {
		return fmt.Errorf("delete report %s: %w", periodID, err)
	}
	_, err = tx.Exec(ctx, `
INSERT INTO insight_reports (report_id, report_type, start_date, end_date, report_data, generated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		periodID,
		rep.Period.Type,
		rep.Period.Start.String(),
		rep.Period.End.String(),
		data,
		rep.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", periodID, err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetReport(ctx context.Context, periodID string) (models.Report, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT report_data FROM insight_reports WHERE report_id = $1`, periodID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Report{}, report.ErrNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("get report %s: %w", periodID, err)
	}
	var rep models.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return models.Report{}, fmt.Errorf("decode report %s: %w", periodID, err)
	}
	return rep, nil
}

func (r *PostgresRepository) ListReports(ctx context.Context) ([]models.ReportMeta, error) {
	rows, err := r.db.Query(ctx, `
SELECT report_id, report_type, start_date, end_date, generated_at
FROM insight_reports
ORDER BY start_date DESC, report_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := []models.ReportMeta{}
	for rows.Next() {
		var (
			m          models.ReportMeta
			start, end time.Time
		)
		if err := rows.Scan(&m.ReportID, &m.Type, &start, &end, &m.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		m.StartDate = models.DateOf(start, time.UTC)
		m.EndDate = models.DateOf(end, time.UTC)
		out = append(out, m)
	}
	return out, rows.Err()
}

// PostgresSource reads the raw Threads metrics tables. DATE columns are
// calendar days already; post timestamps are bounded by the account's local
// midnights.
type PostgresSource struct {
	db  DB
	loc *time.Location
}

func NewPostgresSource(db DB, loc *time.Location) *PostgresSource {
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresSource{db: db, loc: loc}
}

func (s *PostgresSource) ListDailySnapshots(ctx context.Context, start, end models.Date) ([]models.DailySnapshot, error) {
	rows, err := s.db.Query(ctx, `
SELECT date, followers_snapshot
FROM threads_daily_metrics
WHERE date >= $1 AND date <= $2 AND followers_snapshot IS NOT NULL
ORDER BY date ASC`, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("query threads_daily_metrics: %w", err)
	}
	defer rows.Close()

	out := []models.DailySnapshot{}
	for rows.Next() {
		var (
			day       time.Time
			followers int
		)
		if err := rows.Scan(&day, &followers); err != nil {
			return nil, fmt.Errorf("scan threads_daily_metrics: %w", err)
		}
		out = append(out, models.DailySnapshot{Date: models.DateOf(day, time.UTC), FollowerCount: followers})
	}
	return out, rows.Err()
}

func (s *PostgresSource) ListPosts(ctx context.Context, start, end models.Date) ([]models.PostRecord, error) {
	rows, err := s.db.Query(ctx, `
SELECT post_id, posted_at, COALESCE(impressions_total, 0), COALESCE(likes_total, 0), COALESCE(content, '')
FROM threads_posts
WHERE posted_at >= $1 AND posted_at < $2
ORDER BY posted_at ASC, post_id ASC`, start.Start(s.loc), end.AddDays(1).Start(s.loc))
	if err != nil {
		return nil, fmt.Errorf("query threads_posts: %w", err)
	}
	defer rows.Close()

	out := []models.PostRecord{}
	for rows.Next() {
		var p models.PostRecord
		if err := rows.Scan(&p.ID, &p.PublishedAt, &p.Impressions, &p.Likes, &p.Content); err != nil {
			return nil, fmt.Errorf("scan threads_posts: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresSource) CountExternalConversions(ctx context.Context, start, end models.Date, sourceLabel string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
SELECT COUNT(*)
FROM external_conversions
WHERE registered_at >= $1 AND registered_at < $2 AND lower(source_name) = lower($3)`,
		start.Start(s.loc), end.AddDays(1).Start(s.loc), sourceLabel).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count external_conversions: %w", err)
	}
	return n, nil
}

var (
	_ report.Repository        = (*PostgresRepository)(nil)
	_ report.MetricsSource     = (*PostgresSource)(nil)
	_ report.ConversionCounter = (*PostgresSource)(nil)
)
