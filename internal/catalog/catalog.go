// Package catalog records logging sessions in a local SQLite database so the
// history of data files survives restarts.
package catalog

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sweeney/ev-logger/internal/logger"
)

// Record is one catalogued session.
type Record struct {
	ID            int64
	Seq           int // session number within its daemon run
	FileName      string
	Started       time.Time
	Ended         time.Time // zero if the session never closed
	Bytes         uint64
	Blocks        uint64
	WriteFailures uint64
	Overflow      bool
	Interrupted   bool // the daemon stopped before the session closed
}

// Catalog is a SQLite-backed session history. It implements
// logger.SessionObserver.
type Catalog struct {
	db *sql.DB

	mu   sync.Mutex
	rows map[int]int64 // session seq -> row id
}

// Open opens or creates the catalog at path. Sessions left open by a previous
// run are marked interrupted.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog schema: %w", err)
	}

	res, err := db.Exec(`UPDATE sessions SET interrupted = 1 WHERE ended_at IS NULL AND interrupted = 0`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mark interrupted sessions: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("catalog: %d session(s) from a previous run were interrupted", n)
	}

	log.Printf("catalog: opened %s", path)
	return &Catalog{db: db, rows: make(map[int]int64)}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			seq            INTEGER NOT NULL,
			file           TEXT    NOT NULL,
			started_at     INTEGER NOT NULL,
			ended_at       INTEGER,
			bytes          INTEGER NOT NULL DEFAULT 0,
			blocks         INTEGER NOT NULL DEFAULT 0,
			write_failures INTEGER NOT NULL DEFAULT 0,
			overflow       INTEGER NOT NULL DEFAULT 0,
			interrupted    INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS sessions_started ON sessions (started_at);
	`)
	return err
}

// SessionOpened inserts a row for the new session.
func (c *Catalog) SessionOpened(info logger.SessionInfo) {
	res, err := c.db.Exec(`INSERT INTO sessions (seq, file, started_at) VALUES (?, ?, ?)`,
		info.ID, info.FileName, info.Started.UnixMilli())
	if err != nil {
		log.Printf("catalog: insert session %d: %v", info.ID, err)
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Printf("catalog: session %d row id: %v", info.ID, err)
		return
	}
	c.mu.Lock()
	c.rows[info.ID] = id
	c.mu.Unlock()
}

// SessionClosed stores the final counters of the session.
func (c *Catalog) SessionClosed(info logger.SessionInfo) {
	c.mu.Lock()
	id, ok := c.rows[info.ID]
	delete(c.rows, info.ID)
	c.mu.Unlock()
	if !ok {
		log.Printf("catalog: close of unknown session %d", info.ID)
		return
	}

	_, err := c.db.Exec(`
		UPDATE sessions
		SET ended_at = ?, bytes = ?, blocks = ?, write_failures = ?, overflow = ?
		WHERE id = ?`,
		info.Ended.UnixMilli(), int64(info.Bytes), int64(info.Blocks), int64(info.WriteFailures), info.Overflow, id)
	if err != nil {
		log.Printf("catalog: update session %d: %v", info.ID, err)
	}
}

// Recent returns up to n sessions, newest first.
func (c *Catalog) Recent(n int) ([]Record, error) {
	rows, err := c.db.Query(`
		SELECT id, seq, file, started_at, ended_at, bytes, blocks, write_failures, overflow, interrupted
		FROM sessions
		ORDER BY id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			started int64
			ended   sql.NullInt64
			bytes   int64
			blocks  int64
			fails   int64
		)
		if err := rows.Scan(&r.ID, &r.Seq, &r.FileName, &started, &ended, &bytes, &blocks, &fails, &r.Overflow, &r.Interrupted); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.Started = time.UnixMilli(started).UTC()
		if ended.Valid {
			r.Ended = time.UnixMilli(ended.Int64).UTC()
		}
		r.Bytes, r.Blocks, r.WriteFailures = uint64(bytes), uint64(blocks), uint64(fails)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
