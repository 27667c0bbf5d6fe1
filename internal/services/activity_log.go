package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostops/automation-backend/internal/events"
	"github.com/hostops/automation-backend/internal/models"
	"github.com/hostops/automation-backend/internal/storage"
	"go.uber.org/zap"
)

// The activity log keeps only the most recent entries, newest first.
const maxLogEntries = 1000

// ActivityLog is the append-only record of engine decisions. It is the sole
// owner of the log collection: every mutation persists a full snapshot and
// publishes an update event.
type ActivityLog struct {
	store storage.BlobStore
	bus   events.Publisher
	log   *zap.Logger

	mu      sync.Mutex
	entries []models.LogEntry

	// Taken before mu is released so snapshots reach the store in
	// mutation order; a stale snapshot can never overwrite a newer one.
	persistMu sync.Mutex
}

func NewActivityLog(store storage.BlobStore, bus events.Publisher, log *zap.Logger) *ActivityLog {
	return &ActivityLog{store: store, bus: bus, log: log}
}

// Load restores the persisted log snapshot. A missing snapshot is a clean
// first start, not an error.
func (l *ActivityLog) Load(ctx context.Context) error {
	data, err := l.store.Load(ctx, storage.KeyLogs)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load log snapshot: %w", err)
	}

	var entries []models.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode log snapshot: %w", err)
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	return nil
}

// Record appends an entry at the front, truncates to the retention cap,
// persists and broadcasts. Persistence failures are reported to the
// operational log only; recording never fails.
func (l *ActivityLog) Record(severity, message string, details map[string]any) models.LogEntry {
	entry := models.LogEntry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Severity:  severity,
		Message:   message,
		Details:   details,
	}

	l.mu.Lock()
	l.entries = append([]models.LogEntry{entry}, l.entries...)
	if len(l.entries) > maxLogEntries {
		l.entries = l.entries[:maxLogEntries]
	}
	snapshot := make([]models.LogEntry, len(l.entries))
	copy(snapshot, l.entries)
	l.persistAndUnlock(snapshot)

	l.publish(entry)
	return entry
}

func (l *ActivityLog) Info(message string, details map[string]any) models.LogEntry {
	return l.Record(models.SeverityInfo, message, details)
}

func (l *ActivityLog) Warning(message string, details map[string]any) models.LogEntry {
	return l.Record(models.SeverityWarning, message, details)
}

func (l *ActivityLog) Error(message string, details map[string]any) models.LogEntry {
	return l.Record(models.SeverityError, message, details)
}

// Entries returns the current log, newest first.
func (l *ActivityLog) Entries() []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ActivityLog) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.persistAndUnlock([]models.LogEntry{})
	_ = l.bus.Publish(context.Background(), events.StreamLogs, events.Event{
		Type:    events.EventLogsUpdated,
		Payload: map[string]any{"cleared": true},
	})
}

// persistAndUnlock writes the snapshot to the store. It claims the persist
// lock while still holding mu, so a mutation that won the ordering decision
// also writes its snapshot first.
func (l *ActivityLog) persistAndUnlock(snapshot []models.LogEntry) {
	l.persistMu.Lock()
	l.mu.Unlock()
	defer l.persistMu.Unlock()
	l.persist(snapshot)
}

func (l *ActivityLog) persist(snapshot []models.LogEntry) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		l.log.Error("failed to encode log snapshot", zap.Error(err))
		return
	}
	if err := l.store.Save(context.Background(), storage.KeyLogs, data); err != nil {
		l.log.Error("failed to persist log snapshot", zap.Error(err))
	}
}

func (l *ActivityLog) publish(entry models.LogEntry) {
	_ = l.bus.Publish(context.Background(), events.StreamLogs, events.Event{
		Type: events.EventLogsUpdated,
		Payload: map[string]any{
			"entry_id": entry.ID.String(),
			"severity": entry.Severity,
			"message":  entry.Message,
		},
	})
}
