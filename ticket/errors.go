package ticket

import "errors"

// Guard rejections. Every rejected transition returns one of these unchanged
// and leaves the record untouched; handlers map them to user-facing messages.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotConfigured    = errors.New("ticket system not configured")
	ErrAlreadyClaimed   = errors.New("ticket already claimed")
	ErrNotClaimed       = errors.New("ticket not claimed")
	ErrRecordMissing    = errors.New("ticket record missing")
	ErrAlreadyClosed    = errors.New("ticket already closed")
	ErrNotClosed        = errors.New("ticket not closed")
	ErrDeletePending    = errors.New("deletion already scheduled")
	ErrTooManyOpen      = errors.New("too many open tickets")
)
