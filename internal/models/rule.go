package models

import (
	"time"

	"github.com/google/uuid"
)

// Timing variants. Exactly one applies to an action: immediate execution,
// a minute delay from activation, or the next wall-clock occurrence of a
// time of day.
const (
	TimingImmediate = "immediate"
	TimingDelay     = "delay"
	TimingTimeOfDay = "time_of_day"
)

// TimeOfDayLayout is the wall-clock format accepted by time-of-day timings.
const TimeOfDayLayout = "15:04"

type Trigger struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type ActionTiming struct {
	Type         string `json:"type"`
	DelayMinutes int    `json:"delay_minutes,omitempty"`
	TimeOfDay    string `json:"time_of_day,omitempty"`
}

// Validate enforces the exactly-one-variant invariant: an immediate timing
// carries no delay or time fields, a delay is a positive number of minutes,
// and a time of day must parse as HH:MM.
func (t ActionTiming) Validate() error {
	switch t.Type {
	case TimingImmediate:
		if t.DelayMinutes != 0 || t.TimeOfDay != "" {
			return &ValidationError{Field: "timing", Reason: "immediate timing must not carry delay or time fields"}
		}
	case TimingDelay:
		if t.DelayMinutes <= 0 {
			return &ValidationError{Field: "timing", Reason: "delay must be a positive number of minutes"}
		}
		if t.TimeOfDay != "" {
			return &ValidationError{Field: "timing", Reason: "delay timing must not carry a time of day"}
		}
	case TimingTimeOfDay:
		if t.DelayMinutes != 0 {
			return &ValidationError{Field: "timing", Reason: "time-of-day timing must not carry a delay"}
		}
		if _, err := time.Parse(TimeOfDayLayout, t.TimeOfDay); err != nil {
			return &ValidationError{Field: "timing", Reason: "time of day must be in HH:MM format"}
		}
	default:
		return &ValidationError{Field: "timing", Reason: "unknown timing type " + t.Type}
	}
	return nil
}

type Action struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
	Timing ActionTiming   `json:"timing"`
}

type AutomationRule struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Trigger   Trigger   `json:"trigger"`
	Actions   []Action  `json:"actions"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// RuleDraft is the caller-supplied part of a rule: everything except the id
// and creation timestamp, which the store assigns.
type RuleDraft struct {
	Name     string   `json:"name"`
	Trigger  Trigger  `json:"trigger"`
	Actions  []Action `json:"actions"`
	IsActive bool     `json:"is_active"`
}

// Validate checks the draft against the trigger and action catalogs. Action
// config maps are opaque to the engine and deliberately not inspected.
func (d RuleDraft) Validate() error {
	if d.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if d.Trigger.Type == "" {
		return &ValidationError{Field: "trigger", Reason: "trigger type is required"}
	}
	if !IsKnownTriggerType(d.Trigger.Type) {
		return &ValidationError{Field: "trigger", Reason: "unknown trigger type " + d.Trigger.Type}
	}
	for _, action := range d.Actions {
		if !IsKnownActionType(action.Type) {
			return &ValidationError{Field: "actions", Reason: "unknown action type " + action.Type}
		}
		if err := action.Timing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RulePatch carries the fields of a shallow rule update. Nil fields are left
// untouched.
type RulePatch struct {
	Name     *string   `json:"name,omitempty"`
	Trigger  *Trigger  `json:"trigger,omitempty"`
	Actions  *[]Action `json:"actions,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}
