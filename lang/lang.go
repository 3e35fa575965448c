// Package lang holds every user-visible string. A YAML file can override
// any key; missing file or missing keys fall back to the built-in English
// defaults, so the bot runs without a catalog on disk.
package lang

import (
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var defaults = map[string]string{
	"setup.done":          "Ticket system configured.",
	"setup.admin_only":    "Admin only.",
	"panel.title":         "🎫 Support Tickets",
	"panel.body":          "📜 **Ticket Rules**\n• Genuine issues only\n• No spam\n• Be patient\n• Provide proof if needed\n• Respect staff\n\nSelect a ticket type below.",
	"open.created":        "Your ticket has been created: <#{channel}>",
	"open.welcome":        "Hello <@{user}>, please describe your issue.",
	"open.logged":         "Ticket #{number} opened by <@{user}> ({category}).",
	"claim.announce":      "🛠️ This ticket will be handled by <@{user}>",
	"claim.done":          "Ticket claimed.",
	"close.prompt":        "⚠️ Are you sure you want to close this ticket?",
	"close.cancelled":     "Close cancelled.",
	"close.done":          "🔒 Ticket closed.",
	"reopen.done":         "🔓 Ticket reopened.",
	"delete.countdown":    "🗑️ Ticket will be deleted in **{seconds} seconds**…",
	"err.permission":      "You are not allowed to do that.",
	"err.not_configured":  "The ticket system has not been set up yet. Ask an admin to run /setup.",
	"err.already_claimed": "This ticket is already claimed.",
	"err.not_claimed":     "This ticket must be claimed before it can be closed.",
	"err.record_missing":  "This is not a ticket channel.",
	"err.already_closed":  "This ticket is already closed.",
	"err.not_closed":      "This ticket is not closed.",
	"err.delete_pending":  "This ticket is already scheduled for deletion.",
	"err.too_many_open":   "You already have an open ticket. Please use it.",
	"err.internal":        "Something went wrong. Please try again.",
}

var (
	mu        sync.RWMutex
	overrides = map[string]string{}
)

// Load reads key overrides from a flat YAML map. A missing file is fine.
func Load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[lang] No catalog at %s, using built-in messages", path)
		return
	}

	m := make(map[string]string)
	if err := yaml.Unmarshal(data, &m); err != nil {
		log.Fatalf("[lang] Failed to parse %s: %v", path, err)
	}

	mu.Lock()
	overrides = m
	mu.Unlock()
	log.Printf("[lang] Loaded %d message overrides from %s", len(m), path)
}

// T resolves a message key and substitutes {placeholder} pairs.
func T(key string, pairs ...string) string {
	mu.RLock()
	s, ok := overrides[key]
	mu.RUnlock()
	if !ok {
		s, ok = defaults[key]
		if !ok {
			return "{" + key + "}"
		}
	}

	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}
