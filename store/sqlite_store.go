package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"focusdo/tasks"
)

// SQLiteStore keeps one row per task, storing the task's JSON document
// as text. The document format on the wire and in the JSON store is the
// source of truth; sqlite only adds durable row-level storage for setups
// where a flat file is not wanted.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task_documents (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS archive_documents (
			id TEXT PRIMARY KEY,
			month TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS streak_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List() ([]tasks.Task, error) {
	return s.listTable("SELECT data FROM task_documents ORDER BY created_at, id")
}

func (s *SQLiteStore) Get(id string) (*tasks.Task, error) {
	row := s.db.QueryRow("SELECT data FROM task_documents WHERE id = ?", id)
	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tasks.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	var t tasks.Task
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task %s: %w", id, err)
	}
	return &t, nil
}

func (s *SQLiteStore) Save(t tasks.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO task_documents (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = ?
	`, t.ID, string(data), string(data))
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveAll(ts []tasks.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM task_documents"); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	for _, t := range ts {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal task: %w", err)
		}
		if _, err := tx.Exec("INSERT INTO task_documents (id, data) VALUES (?, ?)", t.ID, string(data)); err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM task_documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return tasks.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AppendArchive(month string, ts []tasks.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range ts {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal task: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO archive_documents (id, month, data) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET month = ?, data = ?
		`, t.ID, month, string(data), month, string(data))
		if err != nil {
			return fmt.Errorf("failed to archive task: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListArchive(month string) ([]tasks.Task, error) {
	rows, err := s.db.Query("SELECT data FROM archive_documents WHERE month = ? ORDER BY id", month)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *SQLiteStore) LoadStreak() (tasks.Streak, error) {
	row := s.db.QueryRow("SELECT data FROM streak_state WHERE id = 1")
	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return tasks.Streak{}, nil
	}
	if err != nil {
		return tasks.Streak{}, fmt.Errorf("failed to query streak state: %w", err)
	}
	var streak tasks.Streak
	if err := json.Unmarshal([]byte(data), &streak); err != nil {
		return tasks.Streak{}, nil
	}
	return streak, nil
}

func (s *SQLiteStore) SaveStreak(streak tasks.Streak) error {
	data, err := json.Marshal(streak)
	if err != nil {
		return fmt.Errorf("failed to marshal streak state: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO streak_state (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = ?
	`, string(data), string(data))
	if err != nil {
		return fmt.Errorf("failed to upsert streak state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listTable(query string) ([]tasks.Task, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]tasks.Task, error) {
	result := []tasks.Task{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var t tasks.Task
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return result, nil
}
