// =============================================================================
// Avisos Generator - Generation History
// =============================================================================
//
// This module persists what was generated and which source records have
// already been reported, so a record is never filed twice for the same
// activity and period.
//
// TABLES:
//   generation_history : one row per generation run
//   reported_records   : (activity_type, period, record_id) marked as reported
//
// Two drivers are supported through database/sql:
//   sqlite   : modernc.org/sqlite, a file next to the tool (default)
//   postgres : pgx stdlib driver, for shared installations
//
// =============================================================================

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/ginjaninja78/avisos/internal/config"
	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/types"
)

// Dialect selects placeholder syntax.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Entry is one generation run.
type Entry struct {
	ID           string
	ActivityType types.ActivityType
	Period       types.Period
	RecordCount  int
	ReportCount  int
	ZeroFlag     bool
	GeneratedBy  string
	Timestamp    time.Time
	FileNames    []string
}

// Store reads and writes the history tables.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// Open connects to the configured database and creates the tables.
func Open(ctx context.Context, cfg config.HistoryConfig) (*Store, error) {
	var (
		db      *sql.DB
		err     error
		dialect Dialect
	)
	switch cfg.Driver {
	case "sqlite", "":
		dialect = DialectSQLite
		if dir := filepath.Dir(cfg.DSN); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, apperrors.NewHistoryError("open", fmt.Errorf("create dirs: %w", err))
			}
		}
		db, err = sql.Open("sqlite", cfg.DSN)
	case "postgres":
		dialect = DialectPostgres
		db, err = sql.Open("pgx", cfg.DSN)
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidConfig, "unsupported history driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, apperrors.NewHistoryError("open", err)
	}
	if dialect == DialectSQLite {
		// One writer at a time; concurrent file processing shares the handle.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.NewHistoryError("ping", err)
	}

	s := NewStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open database. The tables are expected to exist; call
// Migrate otherwise.
func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the history tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS generation_history (
			id            TEXT PRIMARY KEY,
			activity_type TEXT NOT NULL,
			period        TEXT NOT NULL,
			record_count  INTEGER NOT NULL,
			report_count  INTEGER NOT NULL,
			zero_flag     INTEGER NOT NULL,
			generated_by  TEXT NOT NULL,
			generated_at  TEXT NOT NULL,
			file_names    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generation_history_activity_period
			ON generation_history (activity_type, period)`,
		`CREATE TABLE IF NOT EXISTS reported_records (
			activity_type TEXT NOT NULL,
			period        TEXT NOT NULL,
			record_id     TEXT NOT NULL,
			reported_at   TEXT NOT NULL,
			PRIMARY KEY (activity_type, period, record_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewHistoryError("migrate", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// GENERATION HISTORY
// =============================================================================

// RecordGeneration inserts e. A missing ID or timestamp is filled in; the
// stored entry is returned.
func (s *Store) RecordGeneration(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if e.FileNames == nil {
		e.FileNames = []string{}
	}
	names, err := json.Marshal(e.FileNames)
	if err != nil {
		return Entry{}, apperrors.NewHistoryError("record_generation", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO generation_history
			(id, activity_type, period, record_count, report_count, zero_flag, generated_by, generated_at, file_names)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, string(e.ActivityType), e.Period.String(), e.RecordCount, e.ReportCount,
		boolToInt(e.ZeroFlag), e.GeneratedBy, e.Timestamp.UTC().Format(time.RFC3339Nano), string(names),
	)
	if err != nil {
		return Entry{}, apperrors.NewHistoryError("record_generation", err)
	}
	return e, nil
}

// DeleteGeneration removes the entry with the given id. Removing a missing
// entry is not an error.
func (s *Store) DeleteGeneration(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM generation_history WHERE id = ?`), id); err != nil {
		return apperrors.NewHistoryError("delete_generation", err)
	}
	return nil
}

// List returns the generation runs, oldest first. Empty activity or a zero
// period match everything.
func (s *Store) List(ctx context.Context, activity types.ActivityType, period types.Period) ([]Entry, error) {
	query := `SELECT id, activity_type, period, record_count, report_count, zero_flag, generated_by, generated_at, file_names
		FROM generation_history`
	var (
		where []string
		args  []interface{}
	)
	if activity != "" {
		where = append(where, "activity_type = ?")
		args = append(args, string(activity))
	}
	if !period.IsZero() {
		where = append(where, "period = ?")
		args = append(args, period.String())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY generated_at, id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, apperrors.NewHistoryError("list", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e                        Entry
			activityType, periodText string
			zero                     int
			generatedAt, fileNames   string
		)
		if err := rows.Scan(&e.ID, &activityType, &periodText, &e.RecordCount, &e.ReportCount,
			&zero, &e.GeneratedBy, &generatedAt, &fileNames); err != nil {
			return nil, apperrors.NewHistoryError("list", fmt.Errorf("scan: %w", err))
		}
		e.ActivityType = types.ActivityType(activityType)
		e.ZeroFlag = zero != 0
		if e.Period, err = types.ParsePeriod(periodText); err != nil {
			return nil, apperrors.NewHistoryError("list", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
			return nil, apperrors.NewHistoryError("list", err)
		}
		if err := json.Unmarshal([]byte(fileNames), &e.FileNames); err != nil {
			return nil, apperrors.NewHistoryError("list", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewHistoryError("list", err)
	}
	return entries, nil
}

// =============================================================================
// RECORD STATUS
// =============================================================================

// MarkReported flags ids as reported for activity and period in a single
// transaction. Ids already flagged keep their original timestamp. It
// returns how many ids were newly flagged.
func (s *Store) MarkReported(ctx context.Context, activity types.ActivityType, period types.Period, ids []string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if at.IsZero() {
		at = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewHistoryError("mark_reported", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt := s.rebind(`INSERT INTO reported_records (activity_type, period, record_id, reported_at)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`)
	stamp := at.UTC().Format(time.RFC3339Nano)
	inserted := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, stmt, string(activity), period.String(), id, stamp)
		if err != nil {
			return 0, apperrors.NewHistoryError("mark_reported", fmt.Errorf("record %s: %w", id, err))
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewHistoryError("mark_reported", err)
	}
	return inserted, nil
}

// ReportedIDs returns the ids already reported for activity and period,
// sorted.
func (s *Store) ReportedIDs(ctx context.Context, activity types.ActivityType, period types.Period) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT record_id FROM reported_records WHERE activity_type = ? AND period = ? ORDER BY record_id`),
		string(activity), period.String())
	if err != nil {
		return nil, apperrors.NewHistoryError("reported_ids", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewHistoryError("reported_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewHistoryError("reported_ids", err)
	}
	return ids, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// rebind rewrites ? placeholders as $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
