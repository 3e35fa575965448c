package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ticket-bot/ticket"

	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	mu sync.Mutex
	db *sql.DB
}

func newSQLiteStore(path string) (*sqliteStore, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0755)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		channel_id  TEXT PRIMARY KEY,
		number      INTEGER NOT NULL,
		opener      TEXT NOT NULL,
		category    TEXT NOT NULL,
		claimed_by  TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS setup (
		id              INTEGER PRIMARY KEY CHECK (id = 1),
		category_id     TEXT NOT NULL,
		log_channel_id  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS counter (
		id      INTEGER PRIMARY KEY CHECK (id = 1),
		value   INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO counter (id, value) VALUES (1, 1);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Setup() (ticket.Setup, bool) {
	var setup ticket.Setup
	err := s.db.QueryRow("SELECT category_id, log_channel_id FROM setup WHERE id = 1").
		Scan(&setup.CategoryID, &setup.LogChannelID)
	if err != nil {
		return ticket.Setup{}, false
	}
	return setup, true
}

func (s *sqliteStore) SaveSetup(setup ticket.Setup) error {
	_, err := s.db.Exec(
		"INSERT INTO setup (id, category_id, log_channel_id) VALUES (1, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET category_id = excluded.category_id, log_channel_id = excluded.log_channel_id",
		setup.CategoryID, setup.LogChannelID,
	)
	return err
}

func (s *sqliteStore) Ticket(channelID string) (ticket.Ticket, bool) {
	var t ticket.Ticket
	err := s.db.QueryRow(
		"SELECT channel_id, number, opener, category, claimed_by, status, created_at FROM tickets WHERE channel_id = ?",
		channelID,
	).Scan(&t.ChannelID, &t.Number, &t.Opener, &t.Category, &t.ClaimedBy, &t.Status, &t.CreatedAt)
	if err != nil {
		return ticket.Ticket{}, false
	}
	return t, true
}

func (s *sqliteStore) PutTicket(t ticket.Ticket) error {
	_, err := s.db.Exec(
		"INSERT INTO tickets (channel_id, number, opener, category, claimed_by, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(channel_id) DO UPDATE SET claimed_by = excluded.claimed_by, status = excluded.status",
		t.ChannelID, t.Number, t.Opener, t.Category, t.ClaimedBy, t.Status, t.CreatedAt,
	)
	return err
}

func (s *sqliteStore) RemoveTicket(channelID string) error {
	_, err := s.db.Exec("DELETE FROM tickets WHERE channel_id = ?", channelID)
	return err
}

func (s *sqliteStore) Tickets() []ticket.Ticket {
	rows, err := s.db.Query("SELECT channel_id, number, opener, category, claimed_by, status, created_at FROM tickets ORDER BY number")
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []ticket.Ticket
	for rows.Next() {
		var t ticket.Ticket
		if err := rows.Scan(&t.ChannelID, &t.Number, &t.Opener, &t.Category, &t.ClaimedBy, &t.Status, &t.CreatedAt); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *sqliteStore) NextSequence() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var num int
	if err := tx.QueryRow("SELECT value FROM counter WHERE id = 1").Scan(&num); err != nil {
		return 0, err
	}
	if _, err := tx.Exec("UPDATE counter SET value = ? WHERE id = 1", num+1); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return num, nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }
