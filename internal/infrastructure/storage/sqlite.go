package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"LinkSentry/internal/domain"
	"LinkSentry/internal/ports"
)

// SQLiteStore persists domain reputation, the unsafe-review queue, and admin
// metric counters in a single SQLite database. It implements ports.DomainStore,
// ports.ReviewLog, and ports.MetricsSink.
type SQLiteStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var (
	_ ports.DomainStore = (*SQLiteStore)(nil)
	_ ports.ReviewLog   = (*SQLiteStore)(nil)
	_ ports.MetricsSink = (*SQLiteStore)(nil)
)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*SQLiteStore, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return NewSQLiteStore(db, logger)
}

// NewSQLiteStore wraps an already-opened database, applying the schema.
// Used directly by tests with an in-memory database.
func NewSQLiteStore(db *sql.DB, logger *slog.Logger) (*SQLiteStore, error) {
	s := &SQLiteStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  logger,
	}

	if err := s.applySchema(); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the persisted verdict for a domain, or found=false when absent.
func (s *SQLiteStore) Get(ctx context.Context, domainKey string) (domain.Verdict, bool, error) {
	query, args, err := s.builder.
		Select("safe").
		From("domain_reputation").
		Where(sq.Eq{"domain": domainKey}).
		ToSql()
	if err != nil {
		return domain.VerdictUnknown, false, fmt.Errorf("build query: %w", err)
	}

	var safe int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&safe)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.VerdictUnknown, false, nil
	}
	if err != nil {
		return domain.VerdictUnknown, false, fmt.Errorf("query reputation: %w", err)
	}

	return domain.Verdict(safe), true, nil
}

// Upsert writes the verdict for a domain with last-writer-wins semantics.
func (s *SQLiteStore) Upsert(ctx context.Context, domainKey string, verdict domain.Verdict) error {
	query, args, err := s.builder.
		Insert("domain_reputation").
		Columns("domain", "safe").
		Values(domainKey, int(verdict)).
		Suffix("ON CONFLICT(domain) DO UPDATE SET safe = excluded.safe").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert reputation: %w", err)
	}
	return nil
}

// Append stores an unsafe review record with its analysis snapshot as JSON.
func (s *SQLiteStore) Append(ctx context.Context, record domain.ReviewRecord) error {
	analysisJSON, err := json.Marshal(record.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	ts := record.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query, args, err := s.builder.
		Insert("unsafe_reviews").
		Columns("raw_url", "domain", "analysis", "llm_output", "timestamp", "reviewed").
		Values(record.RawURL, record.Domain, string(analysisJSON), record.LLMOutput, ts, record.Reviewed).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append review: %w", err)
	}
	return nil
}

// MarkReviewed flips the reviewed flag for every record of the URL. Applying
// the same review twice is a no-op, keeping feedback idempotent.
func (s *SQLiteStore) MarkReviewed(ctx context.Context, rawURL string) error {
	query, args, err := s.builder.
		Update("unsafe_reviews").
		Set("reviewed", true).
		Where(sq.Eq{"raw_url": rawURL}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark reviewed: %w", err)
	}
	return nil
}

// Pending returns the newest unreviewed records, most recent first.
func (s *SQLiteStore) Pending(ctx context.Context, limit int) ([]domain.ReviewRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := s.builder.
		Select("raw_url", "domain", "analysis", "llm_output", "timestamp", "reviewed").
		From("unsafe_reviews").
		Where(sq.Eq{"reviewed": false}).
		OrderBy("timestamp DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var records []domain.ReviewRecord
	for rows.Next() {
		var (
			record       domain.ReviewRecord
			analysisJSON string
		)
		if err := rows.Scan(&record.RawURL, &record.Domain, &analysisJSON, &record.LLMOutput, &record.Timestamp, &record.Reviewed); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if err := json.Unmarshal([]byte(analysisJSON), &record.Analysis); err != nil {
			// A corrupt snapshot should not hide the rest of the queue.
			s.warn("skip corrupt analysis snapshot", "raw_url", record.RawURL, "error", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return records, nil
}

// Increment bumps a named counter, creating it on first use. Fire and forget:
// failures are logged, never returned.
func (s *SQLiteStore) Increment(metric string, delta int64) {
	query, args, err := s.builder.
		Insert("admin_metrics").
		Columns("metric", "value").
		Values(metric, delta).
		Suffix("ON CONFLICT(metric) DO UPDATE SET value = value + excluded.value").
		ToSql()
	if err != nil {
		s.warn("build metric upsert failed", "metric", metric, "error", err)
		return
	}

	if _, err := s.db.ExecContext(context.Background(), query, args...); err != nil {
		s.warn("metric increment failed", "metric", metric, "error", err)
	}
}

// Stats returns all metric counters.
func (s *SQLiteStore) Stats(ctx context.Context) (map[string]int64, error) {
	query, args, err := s.builder.
		Select("metric", "value").
		From("admin_metrics").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var (
			metric string
			value  int64
		)
		if err := rows.Scan(&metric, &value); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		stats[metric] = value
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
