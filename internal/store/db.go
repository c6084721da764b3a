package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/metorial/script-admin/internal/models"
)

type DB struct {
	conn *sql.DB
}

func NewDB(path string) (*DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scripts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		command TEXT NOT NULL,
		category TEXT NOT NULL,
		sha256_hash TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_scripts_category ON scripts(category);
	CREATE INDEX IF NOT EXISTS idx_scripts_position ON scripts(position);

	CREATE TABLE IF NOT EXISTS script_executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		script_id TEXT NOT NULL,
		sha256_hash TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		stdout TEXT,
		stderr TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		FOREIGN KEY (script_id) REFERENCES scripts(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_script_executions_script_id ON script_executions(script_id);
	CREATE INDEX IF NOT EXISTS idx_script_executions_finished_at ON script_executions(finished_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Save inserts the script or overwrites it in place. New scripts are
// placed after every existing one; updates keep their position.
func (db *DB) Save(ctx context.Context, script models.Script) (models.Script, error) {
	query := `
	INSERT INTO scripts (id, name, description, command, category, sha256_hash, position, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM scripts), ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		command = excluded.command,
		category = excluded.category,
		sha256_hash = excluded.sha256_hash,
		updated_at = excluded.updated_at
	`

	now := time.Now()
	_, err := db.conn.ExecContext(ctx, query, script.ID, script.Name, script.Description, script.Command,
		script.Category, models.HashCommand(script.Command), now, now)
	if err != nil {
		return models.Script{}, fmt.Errorf("save script %s: %w", script.ID, err)
	}

	return script, nil
}

// Delete reports false when no script had the given id.
func (db *DB) Delete(ctx context.Context, scriptID string) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM scripts WHERE id = ?`, scriptID)
	if err != nil {
		return false, fmt.Errorf("delete script %s: %w", scriptID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) GetScript(ctx context.Context, id string) (*models.Script, error) {
	query := `SELECT id, name, description, command, category FROM scripts WHERE id = ?`
	var s models.Script
	err := db.conn.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Description, &s.Command, &s.Category)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScripts returns all scripts in insertion order.
func (db *DB) LoadScripts(ctx context.Context) ([]models.Script, error) {
	query := `SELECT id, name, description, command, category FROM scripts ORDER BY position`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []models.Script
	for rows.Next() {
		var s models.Script
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Command, &s.Category); err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, rows.Err()
}

func (db *DB) CountScripts(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM scripts`).Scan(&count)
	return count, err
}

// SeedScripts saves scripts only when the table is empty, so user edits
// survive a restart.
func (db *DB) SeedScripts(ctx context.Context, scripts []models.Script) (int, error) {
	count, err := db.CountScripts(ctx)
	if err != nil {
		return 0, fmt.Errorf("count scripts: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, s := range scripts {
		if _, err := db.Save(ctx, s); err != nil {
			return 0, err
		}
	}
	return len(scripts), nil
}

func (db *DB) RecordExecution(ctx context.Context, exec models.ScriptExecution) error {
	query := `INSERT INTO script_executions (script_id, sha256_hash, exit_code, stdout, stderr, started_at, finished_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.ExecContext(ctx, query, exec.ScriptID, exec.SHA256Hash, exec.ExitCode, exec.Stdout,
		exec.Stderr, exec.StartedAt, exec.FinishedAt)
	if err != nil {
		return fmt.Errorf("record execution for %s: %w", exec.ScriptID, err)
	}
	return nil
}

// GetExecutions returns the most recent executions of a script first.
func (db *DB) GetExecutions(ctx context.Context, scriptID string, limit int) ([]models.ScriptExecution, error) {
	query := `SELECT id, script_id, sha256_hash, exit_code, stdout, stderr, started_at, finished_at
	          FROM script_executions
	          WHERE script_id = ?
	          ORDER BY finished_at DESC, id DESC
	          LIMIT ?`
	rows, err := db.conn.QueryContext(ctx, query, scriptID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []models.ScriptExecution
	for rows.Next() {
		var e models.ScriptExecution
		var stdout, stderr sql.NullString
		if err := rows.Scan(&e.ID, &e.ScriptID, &e.SHA256Hash, &e.ExitCode, &stdout, &stderr, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, err
		}
		e.Stdout = stdout.String
		e.Stderr = stderr.String
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

func (db *DB) CleanupOldExecutions(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM script_executions WHERE finished_at < ?`, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
