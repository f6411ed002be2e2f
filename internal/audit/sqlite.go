/*
internal/audit/sqlite.go
SQLite-backed audit store.
*/

package audit

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the audit database at the given DSN.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT,
		level TEXT,
		message TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		request_id TEXT,
		method TEXT,
		path TEXT,
		status_code INTEGER,
		latency_ms INTEGER,
		client_ip TEXT
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) saveOne(entry Entry) error {
	_, err := s.db.Exec(`INSERT INTO audit_log
		(source, level, message, timestamp, request_id, method, path, status_code, latency_ms, client_ip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Source, entry.Level, entry.Message, entry.Time, entry.RequestID,
		entry.Method, entry.Path, entry.StatusCode, entry.Latency.Milliseconds(),
		entry.ClientIP)
	return err
}

func (s *SQLiteStore) Save(entries []Entry) error {
	for _, entry := range entries {
		if err := s.saveOne(entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`SELECT source, level, message, timestamp, request_id, method, path, status_code, latency_ms, client_ip
		FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var entry Entry
		var latencyMs int64
		if err := rows.Scan(&entry.Source, &entry.Level, &entry.Message, &entry.Time,
			&entry.RequestID, &entry.Method, &entry.Path, &entry.StatusCode,
			&latencyMs, &entry.ClientIP); err != nil {
			return nil, err
		}
		entry.Latency = time.Duration(latencyMs) * time.Millisecond
		results = append(results, entry)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
