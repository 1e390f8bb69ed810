package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"peaks/app"

	_ "modernc.org/sqlite"
)

// SQLite database handle
var (
	db     *sql.DB
	dbOnce sync.Once
	dbErr  error
	dbPath string
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	admin INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id);

CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	prompt TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	public INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id, created_at);
`

// Dir returns the data directory, $PEAKS_DIR or $HOME/.peaks
func Dir() string {
	if dir := os.Getenv("PEAKS_DIR"); dir != "" {
		return dir
	}
	return os.ExpandEnv("$HOME/.peaks")
}

// initDB opens the database and creates the tables once
func initDB() error {
	dbOnce.Do(func() {
		dbPath = filepath.Join(Dir(), "peaks.db")
		if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
			dbErr = fmt.Errorf("failed to create data dir: %w", err)
			return
		}

		conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)")
		if err != nil {
			dbErr = fmt.Errorf("failed to open database: %w", err)
			return
		}

		// SQLite works best with limited connections
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)

		if _, err := conn.Exec(schema); err != nil {
			conn.Close()
			dbErr = fmt.Errorf("failed to create tables: %w", err)
			return
		}

		db = conn
		app.Log("data", "SQLite database initialized at %s", dbPath)
	})
	return dbErr
}

// DB returns the database handle, initializing if needed
func DB() (*sql.DB, error) {
	if err := initDB(); err != nil {
		return nil, err
	}
	return db, nil
}

// Close closes the database so the next DB call reopens it
func Close() error {
	var err error
	if db != nil {
		err = db.Close()
	}
	db = nil
	dbErr = nil
	dbOnce = sync.Once{}
	return err
}
