package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"discord": {"token": "tok"},
		"tickets": {"staff_role": "1411726484954939572"}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !*cfg.Tickets.RequireClaimToClose {
		t.Error("RequireClaimToClose should default to strict")
	}
	if cfg.Tickets.DeleteGraceSeconds != 5 {
		t.Errorf("DeleteGraceSeconds = %d", cfg.Tickets.DeleteGraceSeconds)
	}
	if cfg.Tickets.TranscriptFormat != "html" {
		t.Errorf("TranscriptFormat = %q", cfg.Tickets.TranscriptFormat)
	}
	if cfg.Storage.Driver != "json" || cfg.Storage.JSON.Dir != "data" {
		t.Errorf("storage defaults = %+v", cfg.Storage)
	}
	if cfg.Web.Addr != ":3000" {
		t.Errorf("Web.Addr = %q", cfg.Web.Addr)
	}
	if cfg.AMQP.Exchange != "ticket-events" {
		t.Errorf("AMQP.Exchange = %q", cfg.AMQP.Exchange)
	}
}

func TestLoadConfigExplicitValues(t *testing.T) {
	path := writeConfig(t, `{
		"discord": {"token": "tok", "guild_id": "g1"},
		"tickets": {
			"staff_role": "r1",
			"require_claim_to_close": false,
			"delete_grace_seconds": 10,
			"transcript_format": "text"
		},
		"storage": {"driver": "sqlite", "sqlite": {"path": "/tmp/t.db"}}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if *cfg.Tickets.RequireClaimToClose {
		t.Error("explicit false was overridden")
	}
	if cfg.Tickets.DeleteGraceSeconds != 10 {
		t.Errorf("DeleteGraceSeconds = %d", cfg.Tickets.DeleteGraceSeconds)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLite.Path != "/tmp/t.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
}

func TestLoadConfigRequiresStaffRole(t *testing.T) {
	path := writeConfig(t, `{"discord": {"token": "tok"}}`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted a config without staff_role")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("LoadConfig accepted a missing file")
	}
}
