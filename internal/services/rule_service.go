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

// RuleService owns the canonical rule collection. It is the only place a
// rule's fields change; every mutation persists a full snapshot and
// publishes an update event.
type RuleService struct {
	store        storage.BlobStore
	bus          events.Publisher
	orchestrator *Orchestrator
	activity     *ActivityLog
	log          *zap.Logger

	mu    sync.Mutex
	rules []models.AutomationRule

	// Taken before mu is released so snapshots reach the store in
	// mutation order; a stale snapshot can never overwrite a newer one.
	persistMu sync.Mutex
}

func NewRuleService(store storage.BlobStore, bus events.Publisher, orchestrator *Orchestrator, activity *ActivityLog, log *zap.Logger) *RuleService {
	return &RuleService{
		store:        store,
		bus:          bus,
		orchestrator: orchestrator,
		activity:     activity,
		log:          log,
	}
}

// Load restores the persisted rule snapshot. Rules are not re-activated on
// load: scheduled timers do not survive a restart.
func (s *RuleService) Load(ctx context.Context) error {
	data, err := s.store.Load(ctx, storage.KeyRules)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load rule snapshot: %w", err)
	}

	var rules []models.AutomationRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("decode rule snapshot: %w", err)
	}

	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()

	s.log.Info("rules loaded", zap.Int("count", len(rules)))
	return nil
}

// List returns the rules in insertion order.
func (s *RuleService) List() []models.AutomationRule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AutomationRule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *RuleService) Get(id uuid.UUID) (models.AutomationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rule := range s.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return models.AutomationRule{}, models.ErrRuleNotFound
}

// Create validates the draft, stores the new rule and, when the rule is
// active, hands it to the orchestrator. A rejected draft leaves the
// collection untouched.
func (s *RuleService) Create(ctx context.Context, draft models.RuleDraft) (models.AutomationRule, error) {
	if err := draft.Validate(); err != nil {
		return models.AutomationRule{}, err
	}

	rule := models.AutomationRule{
		ID:        uuid.New(),
		Name:      draft.Name,
		Trigger:   draft.Trigger,
		Actions:   draft.Actions,
		IsActive:  draft.IsActive,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.rules = append(s.rules, rule)
	snapshot := s.snapshotLocked()
	s.persistAndUnlock(ctx, snapshot)

	s.publish(ctx, rule.ID, "created")
	s.activity.Info("rule created: "+rule.Name, map[string]any{
		"rule_id":      rule.ID.String(),
		"trigger_type": rule.Trigger.Type,
		"is_active":    rule.IsActive,
	})

	if rule.IsActive {
		s.orchestrator.ActivateRule(rule)
	}
	return rule, nil
}

// Update merges the patch shallowly and persists. Field edits do not
// re-activate the rule; only the toggle path schedules actions.
func (s *RuleService) Update(ctx context.Context, id uuid.UUID, patch models.RulePatch) (models.AutomationRule, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.AutomationRule{}, models.ErrRuleNotFound
	}

	updated := s.rules[idx]
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Trigger != nil {
		updated.Trigger = *patch.Trigger
	}
	if patch.Actions != nil {
		updated.Actions = *patch.Actions
	}
	if patch.IsActive != nil {
		updated.IsActive = *patch.IsActive
	}

	draft := models.RuleDraft{Name: updated.Name, Trigger: updated.Trigger, Actions: updated.Actions, IsActive: updated.IsActive}
	if err := draft.Validate(); err != nil {
		s.mu.Unlock()
		return models.AutomationRule{}, err
	}

	s.rules[idx] = updated
	snapshot := s.snapshotLocked()
	s.persistAndUnlock(ctx, snapshot)

	s.publish(ctx, id, "updated")
	return updated, nil
}

// Delete removes the rule if present. Entries its actions already placed on
// the scheduler are not cancelled; they fire as registered.
func (s *RuleService) Delete(ctx context.Context, id uuid.UUID) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	name := s.rules[idx].Name
	s.rules = append(s.rules[:idx], s.rules[idx+1:]...)
	snapshot := s.snapshotLocked()
	s.persistAndUnlock(ctx, snapshot)

	s.publish(ctx, id, "deleted")
	s.activity.Info("rule deleted: "+name, map[string]any{"rule_id": id.String()})
	return true
}

// Toggle flips the rule's active state. Turning a rule on hands it to the
// orchestrator; turning it off does not cancel previously scheduled
// entries.
func (s *RuleService) Toggle(ctx context.Context, id uuid.UUID) (models.AutomationRule, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.AutomationRule{}, models.ErrRuleNotFound
	}

	s.rules[idx].IsActive = !s.rules[idx].IsActive
	updated := s.rules[idx]
	snapshot := s.snapshotLocked()
	s.persistAndUnlock(ctx, snapshot)

	s.publish(ctx, id, "toggled")
	s.activity.Info(fmt.Sprintf("rule %q is now %s", updated.Name, activeWord(updated.IsActive)), map[string]any{
		"rule_id":   id.String(),
		"is_active": updated.IsActive,
	})

	if updated.IsActive {
		s.orchestrator.ActivateRule(updated)
	}
	return updated, nil
}

func (s *RuleService) indexLocked(id uuid.UUID) int {
	for i, rule := range s.rules {
		if rule.ID == id {
			return i
		}
	}
	return -1
}

func (s *RuleService) snapshotLocked() []models.AutomationRule {
	snapshot := make([]models.AutomationRule, len(s.rules))
	copy(snapshot, s.rules)
	return snapshot
}

// persistAndUnlock writes the snapshot to the store. It claims the persist
// lock while still holding mu, so a mutation that won the ordering decision
// also writes its snapshot first.
func (s *RuleService) persistAndUnlock(ctx context.Context, snapshot []models.AutomationRule) {
	s.persistMu.Lock()
	s.mu.Unlock()
	defer s.persistMu.Unlock()
	s.persist(ctx, snapshot)
}

func (s *RuleService) persist(ctx context.Context, snapshot []models.AutomationRule) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Error("failed to encode rule snapshot", zap.Error(err))
		return
	}
	if err := s.store.Save(ctx, storage.KeyRules, data); err != nil {
		s.log.Error("failed to persist rule snapshot", zap.Error(err))
	}
}

func (s *RuleService) publish(ctx context.Context, id uuid.UUID, change string) {
	_ = s.bus.Publish(ctx, events.StreamRules, events.Event{
		Type: events.EventRulesUpdated,
		Payload: map[string]any{
			"rule_id": id.String(),
			"change":  change,
		},
	})
}

func activeWord(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
