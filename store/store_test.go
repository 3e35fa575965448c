package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ticket-bot/config"
	"ticket-bot/ticket"
)

func testStoreContract(t *testing.T, st ticket.Store) {
	t.Helper()

	if _, ok := st.Setup(); ok {
		t.Error("fresh store reported a setup")
	}
	if _, ok := st.Ticket("missing"); ok {
		t.Error("fresh store returned a ticket")
	}
	if got := len(st.Tickets()); got != 0 {
		t.Errorf("fresh store has %d tickets", got)
	}

	setup := ticket.Setup{CategoryID: "cat-1", LogChannelID: "log-1"}
	if err := st.SaveSetup(setup); err != nil {
		t.Fatalf("SaveSetup: %v", err)
	}
	got, ok := st.Setup()
	if !ok || got != setup {
		t.Fatalf("Setup = %+v, %v", got, ok)
	}

	for want := 1; want <= 3; want++ {
		n, err := st.NextSequence()
		if err != nil {
			t.Fatalf("NextSequence: %v", err)
		}
		if n != want {
			t.Fatalf("NextSequence = %d, want %d", n, want)
		}
	}

	tk := ticket.Ticket{
		ChannelID: "ch-1",
		Number:    1,
		Opener:    "user-a",
		Category:  ticket.CategoryReport,
		Status:    ticket.StatusOpen,
		CreatedAt: "2026-09-01T10:00:00Z",
	}
	if err := st.PutTicket(tk); err != nil {
		t.Fatalf("PutTicket: %v", err)
	}

	tk.ClaimedBy = "staff-s"
	tk.Status = ticket.StatusClaimed
	if err := st.PutTicket(tk); err != nil {
		t.Fatalf("PutTicket update: %v", err)
	}
	stored, ok := st.Ticket("ch-1")
	if !ok || stored.ClaimedBy != "staff-s" || stored.Status != ticket.StatusClaimed {
		t.Fatalf("stored ticket = %+v, ok=%v", stored, ok)
	}

	if err := st.PutTicket(ticket.Ticket{ChannelID: "ch-2", Number: 2, Opener: "user-b", Category: ticket.CategoryStore, Status: ticket.StatusOpen}); err != nil {
		t.Fatal(err)
	}
	if got := len(st.Tickets()); got != 2 {
		t.Fatalf("Tickets() returned %d records", got)
	}

	if err := st.RemoveTicket("ch-1"); err != nil {
		t.Fatalf("RemoveTicket: %v", err)
	}
	if _, ok := st.Ticket("ch-1"); ok {
		t.Fatal("removed ticket still present")
	}
	if err := st.RemoveTicket("ch-1"); err != nil {
		t.Fatalf("RemoveTicket of absent record: %v", err)
	}
}

func TestJSONStoreContract(t *testing.T) {
	st, err := newJSONStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStoreContract(t, st)
}

func TestSQLiteStoreContract(t *testing.T) {
	st, err := newSQLiteStore(filepath.Join(t.TempDir(), "tickets.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	testStoreContract(t, st)
}

func TestJSONStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	st, err := newJSONStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	st.SaveSetup(ticket.Setup{CategoryID: "cat-1", LogChannelID: "log-1"})
	st.NextSequence() // 1
	st.NextSequence() // 2
	st.PutTicket(ticket.Ticket{ChannelID: "ch-1", Number: 1, Opener: "user-a", Category: ticket.CategoryAppeal, Status: ticket.StatusOpen})

	st2, err := newJSONStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if setup, ok := st2.Setup(); !ok || setup.CategoryID != "cat-1" {
		t.Fatalf("setup after restart = %+v, ok=%v", setup, ok)
	}
	if tk, ok := st2.Ticket("ch-1"); !ok || tk.Category != ticket.CategoryAppeal {
		t.Fatalf("ticket after restart = %+v, ok=%v", tk, ok)
	}
	// The counter resumes where it left off; numbers never repeat across
	// restarts.
	if n, err := st2.NextSequence(); err != nil || n != 3 {
		t.Fatalf("NextSequence after restart = %d, %v", n, err)
	}
}

func TestSQLiteStoreSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.db")

	st, err := newSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	st.NextSequence()
	st.PutTicket(ticket.Ticket{ChannelID: "ch-1", Number: 1, Opener: "user-a", Category: ticket.CategoryGeneral, Status: ticket.StatusOpen})
	st.Close()

	st2, err := newSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st2.Close()
	if n, err := st2.NextSequence(); err != nil || n != 2 {
		t.Fatalf("NextSequence after restart = %d, %v", n, err)
	}
	if _, ok := st2.Ticket("ch-1"); !ok {
		t.Fatal("ticket lost across restart")
	}
}

func TestJSONStoreFileLayout(t *testing.T) {
	dir := t.TempDir()
	st, err := newJSONStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	st.SaveSetup(ticket.Setup{CategoryID: "123", LogChannelID: "456"})
	st.NextSequence()
	st.PutTicket(ticket.Ticket{ChannelID: "789", Number: 1, Opener: "u", Category: ticket.CategoryGeneral, Status: ticket.StatusOpen})

	var cfgFile struct {
		CategoryID   string `json:"categoryId"`
		LogChannelID string `json:"logChannelId"`
	}
	readFile(t, filepath.Join(dir, "ticketConfig.json"), &cfgFile)
	if cfgFile.CategoryID != "123" || cfgFile.LogChannelID != "456" {
		t.Fatalf("ticketConfig.json = %+v", cfgFile)
	}

	var counter struct {
		Counter int `json:"counter"`
	}
	readFile(t, filepath.Join(dir, "ticketCounter.json"), &counter)
	if counter.Counter != 2 {
		t.Fatalf("ticketCounter.json counter = %d", counter.Counter)
	}

	var tickets map[string]ticket.Ticket
	readFile(t, filepath.Join(dir, "tickets.json"), &tickets)
	if _, ok := tickets["789"]; !ok {
		t.Fatalf("tickets.json = %+v", tickets)
	}
}

func readFile(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", path, err)
	}
}

func TestJSONStoreIgnoresCorruptTempFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := newJSONStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	st.PutTicket(ticket.Ticket{ChannelID: "ch-1", Number: 1, Opener: "u", Category: ticket.CategoryGeneral, Status: ticket.StatusOpen})

	// A leftover temp file from a crashed write must not affect reloads.
	if err := os.WriteFile(filepath.Join(dir, "tickets.json.tmp-crash"), []byte("{garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	st2, err := newJSONStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st2.Ticket("ch-1"); !ok {
		t.Fatal("ticket lost after reload with stray temp file")
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(&config.StorageConfig{Driver: "redis"}); err == nil {
		t.Fatal("New accepted an unknown driver")
	}
}

func TestNewJSONDriver(t *testing.T) {
	cfg := &config.StorageConfig{Driver: "json", JSON: config.JSONConfig{Dir: t.TempDir()}}
	st, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, err := st.NextSequence(); err != nil {
		t.Fatal(err)
	}
}
