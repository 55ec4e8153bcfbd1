package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// HistoryEntry is one line of the display log.
type HistoryEntry struct {
	ID        int       `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Role      string    `json:"role"` // "human" or "ai"
	Content   string    `json:"content"`
	Route     string    `json:"route,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryLog stores question/answer pairs for display. It plays no part in
// answering questions.
type HistoryLog interface {
	Append(ctx context.Context, entries ...HistoryEntry) error
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// PostgresHistory keeps the log in a conversation_history table.
type PostgresHistory struct {
	db *sql.DB
}

func OpenPostgresHistory(ctx context.Context, dbURL string) (*PostgresHistory, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	h := &PostgresHistory{db: db}
	if err := h.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *PostgresHistory) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS conversation_history (
		id SERIAL PRIMARY KEY,
		run_id UUID NOT NULL,
		role VARCHAR(16) NOT NULL,
		content TEXT NOT NULL,
		route VARCHAR(16),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := h.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating conversation_history table: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Append(ctx context.Context, entries ...HistoryEntry) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_history (run_id, role, content, route)
			VALUES ($1, $2, $3, $4)
		`, e.RunID.String(), e.Role, e.Content, e.Route); err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
	}
	return tx.Commit()
}

// List returns up to limit most recent entries, oldest first. limit <= 0
// returns everything.
func (h *PostgresHistory) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	q := `
		SELECT id, run_id, role, content, COALESCE(route, ''), created_at
		FROM (SELECT * FROM conversation_history ORDER BY id DESC %s) recent
		ORDER BY id ASC
	`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = h.db.QueryContext(ctx, fmt.Sprintf(q, "LIMIT $1"), limit)
	} else {
		rows, err = h.db.QueryContext(ctx, fmt.Sprintf(q, ""))
	}
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e     HistoryEntry
			runID string
		)
		if err := rows.Scan(&e.ID, &runID, &e.Role, &e.Content, &e.Route, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("history row %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (h *PostgresHistory) Clear(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, "DELETE FROM conversation_history")
	return err
}

func (h *PostgresHistory) Count(ctx context.Context) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversation_history").Scan(&count)
	return count, err
}

func (h *PostgresHistory) Close() error { return h.db.Close() }

// MemoryHistory is the in-process log used when no database is configured.
type MemoryHistory struct {
	mu      sync.Mutex
	nextID  int
	entries []HistoryEntry
	now     func() time.Time
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{now: time.Now}
}

func (m *MemoryHistory) Append(_ context.Context, entries ...HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.nextID++
		e.ID = m.nextID
		e.CreatedAt = m.now()
		m.entries = append(m.entries, e)
	}
	return nil
}

func (m *MemoryHistory) List(_ context.Context, limit int) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if limit > 0 && len(m.entries) > limit {
		start = len(m.entries) - limit
	}
	out := make([]HistoryEntry, len(m.entries)-start)
	copy(out, m.entries[start:])
	return out, nil
}

func (m *MemoryHistory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *MemoryHistory) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}
