package storage

import (
	"fmt"
	"time"

	"github.com/user/xrayboard/internal/model"
)

// EventStorage handles the admin audit log.
type EventStorage struct {
	db *DB
}

// NewEventStorage creates a new event storage handler.
func NewEventStorage(db *DB) *EventStorage {
	return &EventStorage{db: db}
}

// Save stores an event, stamping it with the current time when unset.
func (s *EventStorage) Save(event *model.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	query := `INSERT INTO events (type, severity, message, detail, timestamp)
			  VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.Exec(query,
		event.Type, event.Severity, event.Message, event.Detail, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	event.ID = id

	return nil
}

// Recent returns the newest events, most recent first.
func (s *EventStorage) Recent(limit int) ([]*model.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, type, severity, message, detail, timestamp
			  FROM events ORDER BY timestamp DESC, id DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Severity, &e.Message, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// Prune deletes events older than the retention window.
func (s *EventStorage) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.Exec(`DELETE FROM events WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return result.RowsAffected()
}
