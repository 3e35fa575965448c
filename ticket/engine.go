package ticket

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Actor identifies who is attempting a transition and what they are allowed
// to do. The router resolves role membership; the engine only checks flags.
type Actor struct {
	ID      string
	IsStaff bool
	IsAdmin bool
}

func (a Actor) staffOrAdmin() bool { return a.IsStaff || a.IsAdmin }

// Intent is a platform side effect the caller must execute after a
// successful transition. The engine itself never touches Discord.
type Intent int

const (
	IntentCreateChannel Intent = iota
	IntentRenameChannel
	IntentAnnounceClaim
	IntentAnnounceReopen
	IntentRevokeSend
	IntentRestoreSend
	IntentGenerateTranscript
	IntentNotifyOpener
	IntentNotifyLogSink
	IntentPostClosedControls
)

func (in Intent) String() string {
	switch in {
	case IntentCreateChannel:
		return "create-channel"
	case IntentRenameChannel:
		return "rename-channel"
	case IntentAnnounceClaim:
		return "announce-claim"
	case IntentAnnounceReopen:
		return "announce-reopen"
	case IntentRevokeSend:
		return "revoke-send"
	case IntentRestoreSend:
		return "restore-send"
	case IntentGenerateTranscript:
		return "generate-transcript"
	case IntentNotifyOpener:
		return "notify-opener"
	case IntentNotifyLogSink:
		return "notify-log-sink"
	case IntentPostClosedControls:
		return "post-closed-controls"
	}
	return "unknown"
}

// Result carries the record as it stands after a transition plus the side
// effects the caller still owes.
type Result struct {
	Ticket  Ticket
	Intents []Intent
}

// Policy is the process-wide lifecycle configuration.
type Policy struct {
	// RequireClaimToClose refuses close requests on unclaimed tickets,
	// even from administrators.
	RequireClaimToClose bool
	// MaxOpenPerUser caps concurrently open tickets per opener. Zero
	// disables the cap.
	MaxOpenPerUser int
	// DeleteGrace is the wait before a scheduled deletion runs.
	DeleteGrace time.Duration
}

// Engine applies lifecycle transitions against the store. All mutations for
// one channel ID are serialized by a per-channel lock, so interleaved
// handlers cannot lose updates; unrelated tickets proceed concurrently.
type Engine struct {
	store  Store
	policy Policy

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	pending map[string]*time.Timer

	// createMu serializes sequence allocation with the open-count check.
	createMu sync.Mutex
}

func NewEngine(store Store, policy Policy) *Engine {
	if policy.DeleteGrace <= 0 {
		policy.DeleteGrace = 5 * time.Second
	}
	return &Engine{
		store:   store,
		policy:  policy,
		locks:   make(map[string]*sync.Mutex),
		pending: make(map[string]*time.Timer),
	}
}

func (e *Engine) lock(channelID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[channelID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[channelID] = l
	}
	return l
}

// Get returns the record for a channel, if any.
func (e *Engine) Get(channelID string) (Ticket, bool) {
	return e.store.Ticket(channelID)
}

// Configured reports whether /setup has established both the ticket
// category and the log channel.
func (e *Engine) Configured() bool {
	setup, ok := e.store.Setup()
	return ok && setup.Complete()
}

// Open validates a creation request and allocates the sequence number. The
// returned ticket has no channel ID yet; the caller creates the channel and
// then persists the record with Register. The counter is advanced before the
// channel exists, so a crash in between burns a number rather than reusing
// one.
func (e *Engine) Open(actor Actor, category Category) (Result, error) {
	if _, ok := ParseCategory(string(category)); !ok {
		return Result{}, fmt.Errorf("unknown category %q", category)
	}
	if !e.Configured() {
		return Result{}, ErrNotConfigured
	}

	e.createMu.Lock()
	defer e.createMu.Unlock()

	if e.policy.MaxOpenPerUser > 0 {
		open := 0
		for _, t := range e.store.Tickets() {
			if t.Opener == actor.ID && t.Status != StatusClosed {
				open++
			}
		}
		if open >= e.policy.MaxOpenPerUser {
			return Result{}, ErrTooManyOpen
		}
	}

	num, err := e.store.NextSequence()
	if err != nil {
		return Result{}, err
	}

	t := Ticket{
		Number:    num,
		Opener:    actor.ID,
		Category:  category,
		Status:    StatusOpen,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return Result{
		Ticket:  t,
		Intents: []Intent{IntentCreateChannel, IntentNotifyOpener, IntentNotifyLogSink},
	}, nil
}

// Register persists a freshly opened ticket once its channel exists.
func (e *Engine) Register(t Ticket) error {
	l := e.lock(t.ChannelID)
	l.Lock()
	defer l.Unlock()
	return e.store.PutTicket(t)
}

// Claim assigns the ticket to a staff member. Claiming is
// idempotent-rejecting: a second claim never changes ClaimedBy.
func (e *Engine) Claim(channelID string, actor Actor) (Result, error) {
	l := e.lock(channelID)
	l.Lock()
	defer l.Unlock()

	t, ok := e.store.Ticket(channelID)
	if !ok {
		return Result{}, ErrRecordMissing
	}
	if !actor.staffOrAdmin() {
		return Result{}, ErrPermissionDenied
	}
	if t.Status == StatusClosed {
		return Result{}, ErrAlreadyClosed
	}
	if t.ClaimedBy != "" {
		return Result{}, ErrAlreadyClaimed
	}

	t.ClaimedBy = actor.ID
	t.Status = StatusClaimed
	if err := e.store.PutTicket(t); err != nil {
		return Result{}, err
	}
	return Result{
		Ticket:  t,
		Intents: []Intent{IntentRenameChannel, IntentAnnounceClaim},
	}, nil
}

// RequestClose validates that the actor may close the ticket. It mutates
// nothing: the confirmation round-trip is a separate, explicit step so that
// the prompt can be cancelled.
func (e *Engine) RequestClose(channelID string, actor Actor) error {
	t, ok := e.store.Ticket(channelID)
	if !ok {
		return ErrRecordMissing
	}
	return e.closeGuard(t, actor)
}

func (e *Engine) closeGuard(t Ticket, actor Actor) error {
	if t.Status == StatusClosed {
		return ErrAlreadyClosed
	}
	if t.ClaimedBy == "" {
		if e.policy.RequireClaimToClose {
			return ErrNotClaimed
		}
		if !actor.IsAdmin {
			return ErrPermissionDenied
		}
		return nil
	}
	if actor.ID != t.ClaimedBy && !actor.IsAdmin {
		return ErrPermissionDenied
	}
	return nil
}

// ConfirmClose applies the close. Guards are re-checked under the channel
// lock, so a stale confirmation (ticket already closed by an interleaved
// handler) is rejected instead of double-executed.
func (e *Engine) ConfirmClose(channelID string, actor Actor) (Result, error) {
	l := e.lock(channelID)
	l.Lock()
	defer l.Unlock()

	t, ok := e.store.Ticket(channelID)
	if !ok {
		return Result{}, ErrRecordMissing
	}
	if err := e.closeGuard(t, actor); err != nil {
		return Result{}, err
	}

	t.Status = StatusClosed
	if err := e.store.PutTicket(t); err != nil {
		return Result{}, err
	}
	return Result{
		Ticket: t,
		Intents: []Intent{
			IntentRenameChannel,
			IntentRevokeSend,
			IntentGenerateTranscript,
			IntentNotifyOpener,
			IntentNotifyLogSink,
			IntentPostClosedControls,
		},
	}, nil
}

// Reopen returns a closed ticket to Open, clears the claimer and cancels any
// pending deletion for the channel.
func (e *Engine) Reopen(channelID string, actor Actor) (Result, error) {
	l := e.lock(channelID)
	l.Lock()
	defer l.Unlock()

	t, ok := e.store.Ticket(channelID)
	if !ok {
		return Result{}, ErrRecordMissing
	}
	if !actor.staffOrAdmin() {
		return Result{}, ErrPermissionDenied
	}
	if t.Status != StatusClosed {
		return Result{}, ErrNotClosed
	}

	e.cancelDelete(channelID)

	t.Status = StatusOpen
	t.ClaimedBy = ""
	if err := e.store.PutTicket(t); err != nil {
		return Result{}, err
	}
	return Result{
		Ticket:  t,
		Intents: []Intent{IntentRenameChannel, IntentRestoreSend, IntentAnnounceReopen},
	}, nil
}

// Transcript validates an on-demand transcript request. Read-only.
func (e *Engine) Transcript(channelID string, actor Actor) (Ticket, error) {
	t, ok := e.store.Ticket(channelID)
	if !ok {
		return Ticket{}, ErrRecordMissing
	}
	if !actor.staffOrAdmin() {
		return Ticket{}, ErrPermissionDenied
	}
	return t, nil
}

// ScheduleDelete arms the grace-delay timer for a closed ticket. When the
// delay elapses without a competing reopen, the record is removed from the
// store and run is invoked with the final record so the caller can archive
// the transcript and destroy the channel. A second delete request during the
// window is rejected.
func (e *Engine) ScheduleDelete(channelID string, actor Actor, run func(Ticket)) (time.Duration, error) {
	l := e.lock(channelID)
	l.Lock()
	defer l.Unlock()

	t, ok := e.store.Ticket(channelID)
	if !ok {
		return 0, ErrRecordMissing
	}
	if !actor.staffOrAdmin() {
		return 0, ErrPermissionDenied
	}
	if t.Status != StatusClosed {
		return 0, ErrNotClosed
	}

	e.mu.Lock()
	if _, exists := e.pending[channelID]; exists {
		e.mu.Unlock()
		return 0, ErrDeletePending
	}
	timer := time.AfterFunc(e.policy.DeleteGrace, func() { e.finishDelete(channelID, run) })
	e.pending[channelID] = timer
	e.mu.Unlock()

	return e.policy.DeleteGrace, nil
}

func (e *Engine) finishDelete(channelID string, run func(Ticket)) {
	l := e.lock(channelID)
	l.Lock()
	defer l.Unlock()

	// A reopen may have won the race to the channel lock and disarmed us.
	e.mu.Lock()
	_, stillPending := e.pending[channelID]
	delete(e.pending, channelID)
	e.mu.Unlock()
	if !stillPending {
		return
	}

	t, ok := e.store.Ticket(channelID)
	if !ok {
		return
	}
	run(t)
	if err := e.store.RemoveTicket(channelID); err != nil {
		log.Printf("[tickets] Failed to remove record for %s: %v", channelID, err)
	}

	e.mu.Lock()
	delete(e.locks, channelID)
	e.mu.Unlock()
}

// cancelDelete disarms a pending deletion. Callers hold the channel lock.
func (e *Engine) cancelDelete(channelID string) {
	e.mu.Lock()
	timer, ok := e.pending[channelID]
	delete(e.pending, channelID)
	e.mu.Unlock()
	if ok {
		timer.Stop()
	}
}

// DeletePending reports whether a deletion timer is armed for the channel.
func (e *Engine) DeletePending(channelID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[channelID]
	return ok
}
