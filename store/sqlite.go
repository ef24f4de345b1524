package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"remindbot/models"
)

// History records resolved reminders (fired or cancelled) in SQLite. Active
// reminders stay memory-only; the log only ever covers the past.
type History struct {
	db *sql.DB
}

func OpenHistory(dbPath string) (*History, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	h := &History{db: db}
	if err := h.init(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reminder_history (
		id TEXT PRIMARY KEY,
		reminder_id INTEGER NOT NULL,
		chat_id INTEGER NOT NULL,
		task TEXT NOT NULL,
		outcome TEXT NOT NULL,
		fire_at DATETIME NOT NULL,
		resolved_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_chat ON reminder_history(chat_id);
	CREATE INDEX IF NOT EXISTS idx_history_resolved ON reminder_history(resolved_at);
	`
	if _, err := h.db.Exec(schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// Record appends one resolved reminder to the log.
func (h *History) Record(rem models.Reminder, outcome string) error {
	_, err := h.db.Exec(
		`INSERT INTO reminder_history (id, reminder_id, chat_id, task, outcome, fire_at, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), rem.ID, rem.ChatID, rem.Task, outcome, rem.FireAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("record reminder outcome: %w", err)
	}
	return nil
}

// Recent returns the most recently resolved reminders, newest first.
func (h *History) Recent(limit int) ([]models.HistoryEntry, error) {
	rows, err := h.db.Query(
		`SELECT id, reminder_id, chat_id, task, outcome, fire_at, resolved_at
		 FROM reminder_history ORDER BY resolved_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.ReminderID, &e.ChatID, &e.Task, &e.Outcome, &e.FireAt, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (h *History) Close() error {
	return h.db.Close()
}
