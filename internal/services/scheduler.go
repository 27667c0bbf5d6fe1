package services

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hostops/automation-backend/internal/models"
	"go.uber.org/zap"
)

// Per-entry claim states. An entry moves from pending to exactly one of
// fired or cancelled; the first claimant wins.
const (
	claimPending int32 = iota
	claimFired
	claimCancelled
)

// ScheduledEntry is the externally visible shape of a pending entry.
type ScheduledEntry struct {
	ID      uuid.UUID      `json:"id"`
	FireAt  time.Time      `json:"fire_at"`
	Action  models.Action  `json:"action"`
	Context map[string]any `json:"context,omitempty"`
}

type scheduledEntry struct {
	id      uuid.UUID
	fireAt  time.Time
	action  models.Action
	context map[string]any
	claim   atomic.Int32
	timer   Timer
}

// Scheduler owns the arena of pending entries. Timers fire concurrently
// with the rest of the engine; the atomic claim on each entry serializes a
// fire against a racing cancel so an entry can never dispatch twice or
// dispatch after a successful cancel.
type Scheduler struct {
	dispatcher *Dispatcher
	activity   *ActivityLog
	clock      Clock
	log        *zap.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]*scheduledEntry
}

func NewScheduler(dispatcher *Dispatcher, activity *ActivityLog, clock Clock, log *zap.Logger) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		activity:   activity,
		clock:      clock,
		log:        log,
		entries:    make(map[uuid.UUID]*scheduledEntry),
	}
}

// Schedule registers the action to fire at the moment its timing resolves
// to and returns the entry handle together with the computed fire time.
func (s *Scheduler) Schedule(action models.Action, context map[string]any) (uuid.UUID, time.Time, error) {
	fireAt, err := s.fireTime(action.Timing)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}

	// The caller keeps using its map after this returns (it adds the
	// schedule id for logging); the entry holds its own copy.
	ctxCopy := make(map[string]any, len(context))
	for k, v := range context {
		ctxCopy[k] = v
	}

	entry := &scheduledEntry{
		id:      uuid.New(),
		fireAt:  fireAt,
		action:  action,
		context: ctxCopy,
	}

	s.mu.Lock()
	s.entries[entry.id] = entry
	entry.timer = s.clock.AfterFunc(fireAt.Sub(s.clock.Now()), func() {
		s.fire(entry)
	})
	s.mu.Unlock()

	s.log.Info("action scheduled",
		zap.String("schedule_id", entry.id.String()),
		zap.String("action_type", action.Type),
		zap.Time("fire_at", fireAt),
	)
	return entry.id, fireAt, nil
}

// Cancel removes a pending entry. It returns false for unknown handles and
// for entries that already fired or were already cancelled.
func (s *Scheduler) Cancel(id uuid.UUID) bool {
	s.mu.Lock()
	entry, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	if !entry.claim.CompareAndSwap(claimPending, claimCancelled) {
		return false
	}

	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()

	if entry.timer != nil {
		entry.timer.Stop()
	}

	s.activity.Info("cancelled scheduled action: "+entry.action.Type, map[string]any{
		"schedule_id": id.String(),
		"action_type": entry.action.Type,
	})
	return true
}

// Pending returns a snapshot of the outstanding entries ordered by fire time.
func (s *Scheduler) Pending() []ScheduledEntry {
	s.mu.Lock()
	out := make([]ScheduledEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, ScheduledEntry{
			ID:      entry.id,
			FireAt:  entry.fireAt,
			Action:  entry.action,
			Context: entry.context,
		})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

func (s *Scheduler) fire(entry *scheduledEntry) {
	if !entry.claim.CompareAndSwap(claimPending, claimFired) {
		return
	}

	s.mu.Lock()
	delete(s.entries, entry.id)
	s.mu.Unlock()

	s.dispatcher.Dispatch(entry.action, entry.context)
	s.activity.Info("scheduled action fired: "+entry.action.Type, map[string]any{
		"schedule_id": entry.id.String(),
		"action_type": entry.action.Type,
	})
}

// fireTime resolves a non-immediate timing to a wall-clock moment. A
// time-of-day timing resolves to the next occurrence strictly in the
// future: later today if the time is still ahead, otherwise tomorrow.
func (s *Scheduler) fireTime(timing models.ActionTiming) (time.Time, error) {
	now := s.clock.Now()

	switch timing.Type {
	case models.TimingDelay:
		if timing.DelayMinutes <= 0 {
			return time.Time{}, &models.ValidationError{Field: "timing", Reason: "delay must be a positive number of minutes"}
		}
		return now.Add(time.Duration(timing.DelayMinutes) * time.Minute), nil

	case models.TimingTimeOfDay:
		tod, err := time.Parse(models.TimeOfDayLayout, timing.TimeOfDay)
		if err != nil {
			return time.Time{}, &models.ValidationError{Field: "timing", Reason: "time of day must be in HH:MM format"}
		}
		next := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour(), tod.Minute(), 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		return next, nil

	default:
		return time.Time{}, &models.ValidationError{Field: "timing", Reason: fmt.Sprintf("timing %q is not schedulable", timing.Type)}
	}
}
