package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	Discord DiscordConfig `json:"discord"`
	Tickets TicketsConfig `json:"tickets"`
	Storage StorageConfig `json:"storage"`
	Web     WebConfig     `json:"web"`
	AMQP    AMQPConfig    `json:"amqp"`
	Lang    LangConfig    `json:"lang"`
}

type DiscordConfig struct {
	Token string `json:"token"`
	// GuildID scopes slash-command registration. Empty registers the
	// commands globally.
	GuildID string `json:"guild_id"`
}

type TicketsConfig struct {
	StaffRole           string `json:"staff_role"`
	RequireClaimToClose *bool  `json:"require_claim_to_close"`
	DeleteGraceSeconds  int    `json:"delete_grace_seconds"`
	MaxOpenPerUser      int    `json:"max_open_per_user"`
	// TranscriptFormat is "text" or "html".
	TranscriptFormat string `json:"transcript_format"`
}

type StorageConfig struct {
	Driver  string        `json:"driver"`
	JSON    JSONConfig    `json:"json"`
	SQLite  SQLiteConfig  `json:"sqlite"`
	MongoDB MongoDBConfig `json:"mongodb"`
}

type JSONConfig struct {
	Dir string `json:"dir"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

type WebConfig struct {
	Addr string `json:"addr"`
}

type AMQPConfig struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Exchange string `json:"exchange"`
}

type LangConfig struct {
	Path string `json:"path"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if cfg.Discord.Token == "" {
		cfg.Discord.Token = os.Getenv("DISCORD_TOKEN")
	}
	if cfg.Tickets.StaffRole == "" {
		return nil, fmt.Errorf("tickets.staff_role must be set in %s", path)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Tickets.RequireClaimToClose == nil {
		strict := true
		cfg.Tickets.RequireClaimToClose = &strict
	}
	if cfg.Tickets.DeleteGraceSeconds <= 0 {
		cfg.Tickets.DeleteGraceSeconds = 5
	}
	if cfg.Tickets.MaxOpenPerUser < 0 {
		cfg.Tickets.MaxOpenPerUser = 0
	}
	if cfg.Tickets.TranscriptFormat == "" {
		cfg.Tickets.TranscriptFormat = "html"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "json"
	}
	if cfg.Storage.JSON.Dir == "" {
		cfg.Storage.JSON.Dir = "data"
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/tickets.db"
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":3000"
	}
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = "ticket-events"
	}
	if cfg.Lang.Path == "" {
		cfg.Lang.Path = "messages.yaml"
	}
}
