// Package store holds the session's completed measurement records in
// an in-memory SQLite database. Nothing survives the process: the
// dashboard is a single-session tool with no persistence.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"speedboard/internal/models"
)

// DefaultLimit is the maximum number of records retained. Appending
// beyond it evicts the oldest records.
const DefaultLimit = 100

// Store is the bounded, insertion-ordered record collection. The
// sequencer is the only writer; HTTP handlers read concurrently.
type Store struct {
	db    *sql.DB
	limit int

	mu   sync.Mutex
	subs []chan struct{}
}

// New opens an in-memory store with the default record limit.
func New() (*Store, error) {
	return NewWithLimit(DefaultLimit)
}

// NewWithLimit opens an in-memory store capped at limit records.
func NewWithLimit(limit int) (*Store, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("store limit must be positive, got %d", limit)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("store open failed: %w", err)
	}

	// Each pooled connection would see its own empty :memory: database,
	// so the pool is pinned to a single connection.
	db.SetMaxOpenConns(1)

	schema := `
    CREATE TABLE IF NOT EXISTS records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        download REAL NOT NULL,
        upload REAL NOT NULL,
        ping INTEGER NOT NULL,
        jitter INTEGER NOT NULL,
        packet_loss REAL NOT NULL,
        timestamp INTEGER NOT NULL,
        quality TEXT NOT NULL
    );
    `
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}

	return &Store{db: db, limit: limit}, nil
}

// Append inserts a record and evicts anything beyond the limit, oldest
// first. Subscribers are notified after the insert commits.
func (s *Store) Append(record models.MeasurementRecord) error {
	insert := `
        INSERT INTO records (download, upload, ping, jitter, packet_loss, timestamp, quality)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.Exec(insert,
		record.Download,
		record.Upload,
		record.Ping,
		record.Jitter,
		record.PacketLoss,
		record.Timestamp,
		string(record.Quality),
	)
	if err != nil {
		return fmt.Errorf("record insert failed: %w", err)
	}

	truncate := `
        DELETE FROM records
        WHERE id NOT IN (SELECT id FROM records ORDER BY id DESC LIMIT ?)
    `
	if _, err := s.db.Exec(truncate, s.limit); err != nil {
		return fmt.Errorf("record truncate failed: %w", err)
	}

	s.notify()
	return nil
}

// All returns the retained records, most recently appended first.
func (s *Store) All() ([]models.MeasurementRecord, error) {
	query := `
        SELECT download, upload, ping, jitter, packet_loss, timestamp, quality
        FROM records
        ORDER BY id DESC
    `
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("record query failed: %w", err)
	}
	defer rows.Close()

	var records []models.MeasurementRecord
	for rows.Next() {
		var r models.MeasurementRecord
		var quality string
		if err := rows.Scan(&r.Download, &r.Upload, &r.Ping, &r.Jitter, &r.PacketLoss, &r.Timestamp, &quality); err != nil {
			return nil, fmt.Errorf("record scan failed: %w", err)
		}
		r.Quality = models.Quality(quality)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Len reports the number of retained records.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("record count failed: %w", err)
	}
	return n, nil
}

// Subscribe returns a channel that receives a signal after every
// append. The channel is buffered; a slow consumer coalesces signals
// rather than blocking the writer.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
