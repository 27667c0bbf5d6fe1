package services

import (
	"fmt"
	"time"

	"github.com/hostops/automation-backend/internal/models"
	"go.uber.org/zap"
)

// Orchestrator walks an activated rule's actions and hands each one to the
// dispatcher or the scheduler according to its timing.
type Orchestrator struct {
	dispatcher *Dispatcher
	scheduler  *Scheduler
	activity   *ActivityLog
	log        *zap.Logger
}

func NewOrchestrator(dispatcher *Dispatcher, scheduler *Scheduler, activity *ActivityLog, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		dispatcher: dispatcher,
		scheduler:  scheduler,
		activity:   activity,
		log:        log,
	}
}

// ActivateRule processes the rule's actions in order. Immediate actions are
// dispatched synchronously but never block scheduling of later actions. An
// action whose timing cannot be scheduled is skipped with a WARNING; the
// rest of the rule still runs.
func (o *Orchestrator) ActivateRule(rule models.AutomationRule) {
	o.log.Info("activating rule",
		zap.String("rule_id", rule.ID.String()),
		zap.String("rule_name", rule.Name),
		zap.Int("actions", len(rule.Actions)),
	)

	for i, action := range rule.Actions {
		ctx := map[string]any{
			"rule_id":      rule.ID.String(),
			"rule_name":    rule.Name,
			"trigger_type": rule.Trigger.Type,
			"action_index": i,
		}

		if action.Timing.Type == models.TimingImmediate {
			o.dispatcher.Dispatch(action, ctx)
			o.activity.Info(fmt.Sprintf("rule %q executed immediate action %s", rule.Name, action.Type), ctx)
			continue
		}

		scheduleID, fireAt, err := o.scheduler.Schedule(action, ctx)
		if err != nil {
			o.activity.Warning(fmt.Sprintf("rule %q action %s could not be scheduled: %v", rule.Name, action.Type, err), ctx)
			continue
		}
		ctx["schedule_id"] = scheduleID.String()
		o.activity.Info(fmt.Sprintf("rule %q scheduled action %s for %s", rule.Name, action.Type, fireAt.Format(time.RFC3339)), ctx)
	}
}
