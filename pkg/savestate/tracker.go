package savestate

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/pkg/domain"
)

// Messages set by the tracker's shorthand operations.
const (
	MessageSaving = "Guardando sección..."
	MessageSaved  = "Guardado exitosamente"
)

// subscriberBuffer is the per-subscriber channel capacity. Slow subscribers miss snapshots.
const subscriberBuffer = 16

// Snapshot is a copy of the tracker state, safe to serialize and share.
type Snapshot struct {
	States    map[string]domain.SaveProgress `json:"states"`
	Global    domain.SaveState               `json:"global"`
	LastError string                         `json:"last_error,omitempty"`
}

// Tracker holds the save state of every section of one draft.
// Each update and the global state derived from it are applied under one lock,
// so readers never observe a global state that lags the section map.
type Tracker struct {
	mu        sync.Mutex
	states    map[string]domain.SaveProgress
	global    domain.SaveState
	lastError string

	subs   map[chan Snapshot]struct{}
	closed bool
	now    func() time.Time
	logger *slog.Logger
}

// Option configures the Tracker.
type Option func(*Tracker)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLogger configures a logger for the Tracker.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// New creates an empty Tracker in the not-saved state.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		states: make(map[string]domain.SaveProgress),
		global: domain.SaveNotSaved,
		subs:   make(map[chan Snapshot]struct{}),
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSaving marks the section as saving.
func (t *Tracker) StartSaving(sectionID string) {
	t.UpdateSectionState(sectionID, domain.SaveSaving, MessageSaving, nil)
}

// MarkSaved marks the section as saved.
func (t *Tracker) MarkSaved(sectionID string) {
	t.UpdateSectionState(sectionID, domain.SaveSaved, MessageSaved, nil)
}

// MarkError marks the section as failed and records message as the last error.
func (t *Tracker) MarkError(sectionID, message string, errs []domain.ValidationError) {
	t.UpdateSectionState(sectionID, domain.SaveError, message, errs)
}

// UpdateSectionState sets one section's state and recomputes the global state
// from the updated map.
func (t *Tracker) UpdateSectionState(sectionID string, state domain.SaveState, message string, errs []domain.ValidationError) {
	t.mu.Lock()
	t.states[sectionID] = t.progress(state, message, errs)
	if state == domain.SaveError {
		t.lastError = message
	}
	t.global = domain.DeriveGlobalState(t.states)
	global := t.global
	t.publishLocked()
	t.mu.Unlock()

	t.logger.Debug("Section save state updated",
		"section_id", sectionID,
		"state", state,
		"global", global,
	)
}

// ApplySectionStates sets several sections at once, as reported by the save
// pipeline after a successful save, and derives the global state once.
func (t *Tracker) ApplySectionStates(states map[string]domain.SaveState) {
	if len(states) == 0 {
		return
	}

	t.mu.Lock()
	for id, state := range states {
		msg := ""
		if state == domain.SaveSaved {
			msg = MessageSaved
		}
		t.states[id] = t.progress(state, msg, nil)
	}
	t.global = domain.DeriveGlobalState(t.states)
	t.publishLocked()
	t.mu.Unlock()
}

// RenameSection moves a section's state to a new id, as when a temporary
// client id is replaced by the persisted one.
func (t *Tracker) RenameSection(from, to string) {
	if from == to || to == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.states[from]; ok {
		delete(t.states, from)
		t.states[to] = p
	}
}

// ResetStates clears every section and returns the global state to not-saved.
func (t *Tracker) ResetStates() {
	t.mu.Lock()
	t.states = make(map[string]domain.SaveProgress)
	t.global = domain.SaveNotSaved
	t.lastError = ""
	t.publishLocked()
	t.mu.Unlock()
}

// SavingStates returns a copy of the per-section states.
func (t *Tracker) SavingStates() map[string]domain.SaveProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyStates(t.states)
}

// SectionState returns one section's progress, or the not-saved state if it was never tracked.
func (t *Tracker) SectionState(sectionID string) domain.SaveProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.states[sectionID]; ok {
		return p
	}
	return domain.SaveProgress{State: domain.SaveNotSaved}
}

// GlobalState returns the derived draft-wide state.
func (t *Tracker) GlobalState() domain.SaveState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.global
}

// LastError returns the message of the most recent error since the last reset.
func (t *Tracker) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

// Snapshot returns a consistent copy of the whole tracker state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every change, and a
// function that unsubscribes and closes the channel. Snapshots arrive in the
// order the changes were applied. On a closed tracker the channel is closed
// right away.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	t.mu.Lock()
	if t.closed {
		close(ch)
	} else {
		t.subs[ch] = struct{}{}
	}
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if _, ok := t.subs[ch]; ok {
				delete(t.subs, ch)
				close(ch)
			}
		})
	}
}

// Close ends every subscription. Later changes are still applied but no
// longer published.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for ch := range t.subs {
		delete(t.subs, ch)
		close(ch)
	}
}

// publishLocked sends the current snapshot to every subscriber. Holding the
// lock keeps publication in the same order as the updates.
func (t *Tracker) publishLocked() {
	if len(t.subs) == 0 {
		return
	}
	snap := t.snapshotLocked()
	for ch := range t.subs {
		select {
		case ch <- snap:
		default:
			t.logger.Warn("Save state subscriber buffer full, dropping snapshot")
		}
	}
}

func (t *Tracker) progress(state domain.SaveState, message string, errs []domain.ValidationError) domain.SaveProgress {
	var copied []domain.ValidationError
	if len(errs) > 0 {
		copied = append(copied, errs...)
	}
	return domain.SaveProgress{
		State:     state,
		Message:   message,
		Errors:    copied,
		Timestamp: t.now(),
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		States:    copyStates(t.states),
		Global:    t.global,
		LastError: t.lastError,
	}
}

func copyStates(in map[string]domain.SaveProgress) map[string]domain.SaveProgress {
	out := make(map[string]domain.SaveProgress, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// StatusMessage renders a progress as one human-readable line. Validation
// messages are appended after the main message, joined with "; ".
func StatusMessage(p domain.SaveProgress) string {
	msg := p.Message
	if msg == "" {
		msg = defaultMessage(p.State)
	}
	if len(p.Errors) == 0 {
		return msg
	}

	details := make([]string, len(p.Errors))
	for i, e := range p.Errors {
		details[i] = e.Message
	}
	joined := strings.Join(details, "; ")
	if msg == "" {
		return joined
	}
	return msg + ": " + joined
}

func defaultMessage(state domain.SaveState) string {
	switch state {
	case domain.SaveSaving:
		return MessageSaving
	case domain.SaveSaved:
		return MessageSaved
	case domain.SaveError:
		return "Error al guardar"
	}
	return "Sin guardar"
}
