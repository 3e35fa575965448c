package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ticket-bot/ticket"
)

// jsonStore keeps three files in one directory: ticketConfig.json,
// ticketCounter.json and tickets.json. Every mutation rewrites the affected
// file through a temp file + rename, so a crash mid-write leaves either the
// old or the new content, never a torn file.
type jsonStore struct {
	mu  sync.Mutex
	dir string

	setup    ticket.Setup
	hasSetup bool
	counter  int
	tickets  map[string]ticket.Ticket
}

const (
	configFile  = "ticketConfig.json"
	counterFile = "ticketCounter.json"
	ticketsFile = "tickets.json"
)

type counterState struct {
	Counter int `json:"counter"`
}

func newJSONStore(dir string) (*jsonStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	s := &jsonStore{
		dir:     dir,
		counter: 1,
		tickets: make(map[string]ticket.Ticket),
	}

	if err := readJSON(filepath.Join(dir, configFile), &s.setup); err == nil {
		s.hasSetup = true
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", configFile, err)
	}

	var cs counterState
	if err := readJSON(filepath.Join(dir, counterFile), &cs); err == nil {
		if cs.Counter > 0 {
			s.counter = cs.Counter
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", counterFile, err)
	}

	if err := readJSON(filepath.Join(dir, ticketsFile), &s.tickets); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", ticketsFile, err)
	}
	if s.tickets == nil {
		s.tickets = make(map[string]ticket.Ticket)
	}
	return s, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSON replaces path atomically: write to a temp file in the same
// directory, fsync, then rename over the target.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *jsonStore) Setup() (ticket.Setup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setup, s.hasSetup
}

func (s *jsonStore) SaveSetup(setup ticket.Setup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(filepath.Join(s.dir, configFile), setup); err != nil {
		return err
	}
	s.setup = setup
	s.hasSetup = true
	return nil
}

func (s *jsonStore) Ticket(channelID string) (ticket.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[channelID]
	return t, ok
}

func (s *jsonStore) PutTicket(t ticket.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.tickets[t.ChannelID]
	s.tickets[t.ChannelID] = t
	if err := s.saveTicketsLocked(); err != nil {
		if had {
			s.tickets[t.ChannelID] = prev
		} else {
			delete(s.tickets, t.ChannelID)
		}
		return err
	}
	return nil
}

func (s *jsonStore) RemoveTicket(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.tickets[channelID]
	if !had {
		return nil
	}
	delete(s.tickets, channelID)
	if err := s.saveTicketsLocked(); err != nil {
		s.tickets[channelID] = prev
		return err
	}
	return nil
}

func (s *jsonStore) Tickets() []ticket.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ticket.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}
	return out
}

func (s *jsonStore) NextSequence() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	num := s.counter
	if err := writeJSON(filepath.Join(s.dir, counterFile), counterState{Counter: num + 1}); err != nil {
		return 0, err
	}
	s.counter = num + 1
	return num, nil
}

func (s *jsonStore) Close() error { return nil }

func (s *jsonStore) saveTicketsLocked() error {
	return writeJSON(filepath.Join(s.dir, ticketsFile), s.tickets)
}
