package handlers

import "ticket-bot/ticket"

// ActionKind is the closed set of component actions the router understands.
// Unknown custom IDs never reach a handler.
type ActionKind int

const (
	ActionOpen ActionKind = iota
	ActionClaim
	ActionClose
	ActionConfirmClose
	ActionCancelClose
	ActionTranscript
	ActionReopen
	ActionDelete
)

// Action is a parsed component interaction. Category is set only for
// ActionOpen.
type Action struct {
	Kind     ActionKind
	Category ticket.Category
}

// Component custom IDs, stable across restarts because they are baked into
// previously posted panel and control messages.
const (
	idClaim        = "claim"
	idClose        = "close"
	idConfirmClose = "confirm_close"
	idCancelClose  = "cancel_close"
	idTranscript   = "transcript"
	idReopen       = "reopen"
	idDelete       = "delete"
)

// ParseAction maps a component custom ID onto the action enumeration. The
// five category buttons carry their category ID directly.
func ParseAction(customID string) (Action, bool) {
	switch customID {
	case idClaim:
		return Action{Kind: ActionClaim}, true
	case idClose:
		return Action{Kind: ActionClose}, true
	case idConfirmClose:
		return Action{Kind: ActionConfirmClose}, true
	case idCancelClose:
		return Action{Kind: ActionCancelClose}, true
	case idTranscript:
		return Action{Kind: ActionTranscript}, true
	case idReopen:
		return Action{Kind: ActionReopen}, true
	case idDelete:
		return Action{Kind: ActionDelete}, true
	}
	if cat, ok := ticket.ParseCategory(customID); ok {
		return Action{Kind: ActionOpen, Category: cat}, true
	}
	return Action{}, false
}
