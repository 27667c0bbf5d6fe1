package services

import (
	"github.com/hostops/automation-backend/internal/models"
	"go.uber.org/zap"
)

// Effector performs the real-world side effect behind one action type.
// Effectors report their own failures through the activity log; the
// dispatcher only routes.
type Effector interface {
	Execute(action models.Action, context map[string]any)
}

// EffectorFunc adapts a plain function to the Effector interface.
type EffectorFunc func(action models.Action, context map[string]any)

func (f EffectorFunc) Execute(action models.Action, context map[string]any) {
	f(action, context)
}

// Dispatcher routes one action to the effector registered for its type.
// It owns no state beyond the registry and fails softly: an unknown action
// type is a WARNING, never an error.
type Dispatcher struct {
	activity  *ActivityLog
	log       *zap.Logger
	effectors map[string]Effector
}

func NewDispatcher(activity *ActivityLog, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		activity:  activity,
		log:       log,
		effectors: make(map[string]Effector),
	}
}

// Register binds an effector to an action type, replacing any previous
// binding. Registration happens at wiring time, before dispatching starts.
func (d *Dispatcher) Register(actionType string, effector Effector) {
	d.effectors[actionType] = effector
}

// Dispatch executes the action's side effect. It returns after the effector
// call; slow work is the effector's concern.
func (d *Dispatcher) Dispatch(action models.Action, context map[string]any) {
	d.activity.Info("executing action: "+action.Type, map[string]any{
		"action_type": action.Type,
		"config":      action.Config,
		"context":     context,
	})

	effector, ok := d.effectors[action.Type]
	if !ok {
		d.activity.Warning("unknown action type: "+action.Type, map[string]any{
			"action_type": action.Type,
		})
		return
	}

	effector.Execute(action, context)
}
