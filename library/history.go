package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// EventAction is the kind of circulation event archived to history.
type EventAction string

const (
	EventLent     EventAction = "lent"
	EventReturned EventAction = "returned"
)

// Event is one archived circulation event.
type Event struct {
	ID       string
	Username string
	Title    string
	Action   EventAction
	At       time.Time
}

// HistoryStore archives circulation events to SQLite so borrow history
// survives across runs, unlike the in-memory audit log.
type HistoryStore struct {
	db *sql.DB

	recordStmt *sql.Stmt
}

const historySchemaVersion = 1

// OpenHistory opens (or creates) the history database at dbPath, applies
// schema migrations, and prepares common statements.
func OpenHistory(dbPath string) (*HistoryStore, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyHistoryMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &HistoryStore{db: db}
	if store.recordStmt, err = db.Prepare(
		`INSERT INTO events(id,username,title,action,at) VALUES(?,?,?,?,?)`); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases prepared statements and closes the DB.
func (h *HistoryStore) Close() error {
	if h.recordStmt != nil {
		h.recordStmt.Close()
	}
	return h.db.Close()
}

func applyHistoryMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= historySchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL,
            title TEXT NOT NULL,
            action TEXT NOT NULL,
            at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_events_username ON events(username, at);`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, historySchemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// Record archives one event.
func (h *HistoryStore) Record(username, title string, action EventAction) error {
	_, err := h.recordStmt.Exec(uuid.NewString(), username, title, string(action), time.Now().UTC())
	return err
}

// ForUser returns the user's archived events, oldest first.
func (h *HistoryStore) ForUser(username string) ([]Event, error) {
	rows, err := h.db.Query(
		`SELECT id,username,title,action,at FROM events WHERE username=? ORDER BY at ASC, id ASC`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var action string
		if err := rows.Scan(&e.ID, &e.Username, &e.Title, &action, &e.At); err != nil {
			return nil, err
		}
		e.Action = EventAction(action)
		events = append(events, e)
	}
	return events, rows.Err()
}
