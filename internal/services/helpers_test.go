package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hostops/automation-backend/internal/events"
	"github.com/hostops/automation-backend/internal/models"
	"github.com/hostops/automation-backend/internal/storage"
	"go.uber.org/zap"
)

// recordingBus collects published events in place of redis pub/sub.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, _ string, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// captureEffector records every dispatch routed to it.
type captureEffector struct {
	mu    sync.Mutex
	calls []models.Action
}

func (e *captureEffector) Execute(action models.Action, _ map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, action)
}

func (e *captureEffector) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// fakeClock drives scheduler timers manually.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	fireAt  time.Time
	f       func()
	fired   bool
	stopped bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, fireAt: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and runs every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.fireAt.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// laggedStore records every save of one key and stalls snapshots smaller
// than the threshold, so an unserialized persist would land after a later,
// larger one.
type laggedStore struct {
	key       string
	threshold int

	mu    sync.Mutex
	saves [][]byte
}

func newLaggedStore(key string, threshold int) *laggedStore {
	return &laggedStore{key: key, threshold: threshold}
}

func (s *laggedStore) Load(_ context.Context, _ string) ([]byte, error) {
	return nil, storage.ErrNotFound
}

func (s *laggedStore) Save(_ context.Context, key string, data []byte) error {
	if key != s.key {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil && len(items) < s.threshold {
		time.Sleep(30 * time.Millisecond)
	}
	s.mu.Lock()
	s.saves = append(s.saves, append([]byte(nil), data...))
	s.mu.Unlock()
	return nil
}

func (s *laggedStore) lastSave() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

func (s *laggedStore) saveSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.saves))
	for i, data := range s.saves {
		var items []json.RawMessage
		_ = json.Unmarshal(data, &items)
		sizes[i] = len(items)
	}
	return sizes
}

// testEngine bundles a fully wired engine over in-memory collaborators.
type testEngine struct {
	store     *storage.MemoryStore
	bus       *recordingBus
	activity  *ActivityLog
	dispatch  *Dispatcher
	capture   *captureEffector
	clock     *fakeClock
	scheduler *Scheduler
	rules     *RuleService
}

func newTestEngine(now time.Time) *testEngine {
	log := zap.NewNop()
	store := storage.NewMemoryStore()
	bus := &recordingBus{}

	activity := NewActivityLog(store, bus, log)
	dispatch := NewDispatcher(activity, log)
	capture := &captureEffector{}
	for _, a := range models.AvailableActions() {
		dispatch.Register(a.Type, capture)
	}

	clock := newFakeClock(now)
	scheduler := NewScheduler(dispatch, activity, clock, log)
	orchestrator := NewOrchestrator(dispatch, scheduler, activity, log)
	rules := NewRuleService(store, bus, orchestrator, activity, log)

	return &testEngine{
		store:     store,
		bus:       bus,
		activity:  activity,
		dispatch:  dispatch,
		capture:   capture,
		clock:     clock,
		scheduler: scheduler,
		rules:     rules,
	}
}
