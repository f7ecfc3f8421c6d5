// Package store persists settled analyses in SQLite (modernc.org/sqlite, no
// cgo). One database file lives in the configured history directory.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/speedx-dev/speedx/internal/model"
)

const (
	dbFile = "speedx.db"

	// DefaultLimit is the number of entries Recent returns for a non-positive limit.
	DefaultLimit = 20
	// MaxLimit caps the number of entries Recent returns.
	MaxLimit = 100
)

// Entry is one settled analysis run.
type Entry struct {
	ID        int64                 `json:"id"`
	SessionID string                `json:"sessionId"`
	URL       string                `json:"url"`
	Status    string                `json:"status"`
	Metrics   *model.WebsiteMetrics `json:"metrics"`
	Insights  []string              `json:"insights"`
	ErrorKind string                `json:"errorKind,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
}

// History stores analysis entries.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database inside dir.
func Open(dir string) (*History, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFile)+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &History{db: db, now: time.Now}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return h, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		metrics_json TEXT,
		insights_json TEXT NOT NULL DEFAULT '[]',
		error_kind TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL -- unix milliseconds
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses(session_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Save appends an entry and returns its ID. A zero CreatedAt is set to now.
func (h *History) Save(ctx context.Context, e *Entry) (int64, error) {
	var metricsJSON sql.NullString
	if e.Metrics != nil {
		data, err := json.Marshal(e.Metrics)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize metrics: %w", err)
		}
		metricsJSON = sql.NullString{String: string(data), Valid: true}
	}

	insights := e.Insights
	if insights == nil {
		insights = []string{}
	}
	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize insights: %w", err)
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = h.now()
	}

	result, err := h.db.ExecContext(ctx, `
	INSERT INTO analyses (session_id, url, status, metrics_json, insights_json, error_kind, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.URL, e.Status, metricsJSON, string(insightsJSON), e.ErrorKind, createdAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}

	return result.LastInsertId()
}

// Recent returns up to limit entries, newest first. A non-positive limit means
// DefaultLimit; anything above MaxLimit is capped.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	rows, err := h.db.QueryContext(ctx, `
	SELECT id, session_id, url, status, metrics_json, insights_json, error_kind, created_at
	FROM analyses
	ORDER BY created_at DESC, id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e            Entry
			metricsJSON  sql.NullString
			insightsJSON string
			createdAt    int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.URL, &e.Status, &metricsJSON, &insightsJSON, &e.ErrorKind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		if metricsJSON.Valid {
			e.Metrics = &model.WebsiteMetrics{}
			if err := json.Unmarshal([]byte(metricsJSON.String), e.Metrics); err != nil {
				return nil, fmt.Errorf("failed to decode metrics of analysis %d: %w", e.ID, err)
			}
		}
		if err := json.Unmarshal([]byte(insightsJSON), &e.Insights); err != nil {
			return nil, fmt.Errorf("failed to decode insights of analysis %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
