package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestActionTimingValidate(t *testing.T) {
	tests := []struct {
		name   string
		timing ActionTiming
		valid  bool
	}{
		{"immediate", ActionTiming{Type: TimingImmediate}, true},
		{"delay 5m", ActionTiming{Type: TimingDelay, DelayMinutes: 5}, true},
		{"time of day", ActionTiming{Type: TimingTimeOfDay, TimeOfDay: "18:30"}, true},
		{"midnight", ActionTiming{Type: TimingTimeOfDay, TimeOfDay: "00:00"}, true},

		{"immediate with delay", ActionTiming{Type: TimingImmediate, DelayMinutes: 5}, false},
		{"immediate with time", ActionTiming{Type: TimingImmediate, TimeOfDay: "10:00"}, false},
		{"zero delay", ActionTiming{Type: TimingDelay}, false},
		{"negative delay", ActionTiming{Type: TimingDelay, DelayMinutes: -1}, false},
		{"delay with time", ActionTiming{Type: TimingDelay, DelayMinutes: 5, TimeOfDay: "10:00"}, false},
		{"time with delay", ActionTiming{Type: TimingTimeOfDay, TimeOfDay: "10:00", DelayMinutes: 1}, false},
		{"empty time", ActionTiming{Type: TimingTimeOfDay}, false},
		{"out of range time", ActionTiming{Type: TimingTimeOfDay, TimeOfDay: "25:61"}, false},
		{"prose time", ActionTiming{Type: TimingTimeOfDay, TimeOfDay: "six thirty"}, false},
		{"unknown type", ActionTiming{Type: "eventually"}, false},
		{"empty type", ActionTiming{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.timing.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			}
		})
	}
}

func TestRuleDraftValidate(t *testing.T) {
	valid := RuleDraft{
		Name:    "Welcome",
		Trigger: Trigger{Type: TriggerCheckIn},
		Actions: []Action{{Type: ActionEmail, Timing: ActionTiming{Type: TimingImmediate}}},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	noActions := valid
	noActions.Actions = nil
	if err := noActions.Validate(); err != nil {
		t.Errorf("a rule may have no actions: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*RuleDraft)
	}{
		{"empty name", func(d *RuleDraft) { d.Name = "" }},
		{"empty trigger type", func(d *RuleDraft) { d.Trigger.Type = "" }},
		{"unknown trigger type", func(d *RuleDraft) { d.Trigger.Type = "FULL_MOON" }},
		{"unknown action type", func(d *RuleDraft) { d.Actions[0].Type = "FAX" }},
		{"invalid timing", func(d *RuleDraft) { d.Actions[0].Timing.Type = "never" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			draft.Actions = []Action{valid.Actions[0]}
			tt.mutate(&draft)

			var verr *ValidationError
			if !errors.As(draft.Validate(), &verr) {
				t.Errorf("expected ValidationError")
			}
		})
	}
}

func TestCatalogMembership(t *testing.T) {
	for _, trigger := range AvailableTriggers() {
		if !IsKnownTriggerType(trigger.Type) {
			t.Errorf("catalog trigger %s not recognised", trigger.Type)
		}
		if trigger.Description == "" {
			t.Errorf("trigger %s has no description", trigger.Type)
		}
	}
	for _, action := range AvailableActions() {
		if !IsKnownActionType(action.Type) {
			t.Errorf("catalog action %s not recognised", action.Type)
		}
		if action.Description == "" {
			t.Errorf("action %s has no description", action.Type)
		}
	}

	if IsKnownTriggerType("FULL_MOON") {
		t.Error("unknown trigger type accepted")
	}
	if IsKnownActionType("FAX") {
		t.Error("unknown action type accepted")
	}
	if len(AvailableTriggers()) != 7 {
		t.Errorf("expected 7 triggers, got %d", len(AvailableTriggers()))
	}
	if len(AvailableActions()) != 5 {
		t.Errorf("expected 5 actions, got %d", len(AvailableActions()))
	}
}

func TestRuleCollectionRoundTrip(t *testing.T) {
	rules := []AutomationRule{
		{
			ID:      uuid.New(),
			Name:    "Welcome",
			Trigger: Trigger{Type: TriggerCheckIn, Description: "Guest checks in"},
			Actions: []Action{
				{
					Type:   ActionEmail,
					Config: map[string]any{"subject": "Welcome!"},
					Timing: ActionTiming{Type: TimingImmediate},
				},
				{
					Type:   ActionTask,
					Config: map[string]any{"title": "prepare room"},
					Timing: ActionTiming{Type: TimingDelay, DelayMinutes: 30},
				},
			},
			IsActive:  true,
			CreatedAt: time.Date(2025, 6, 1, 10, 30, 45, 123456789, time.UTC),
		},
		{
			ID:        uuid.New(),
			Name:      "Evening lights",
			Trigger:   Trigger{Type: TriggerCheckOut},
			IsActive:  false,
			CreatedAt: time.Now().UTC(),
		},
	}

	data, err := json.Marshal(rules)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []AutomationRule
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(decoded) != len(rules) {
		t.Fatalf("expected %d rules, got %d", len(rules), len(decoded))
	}
	for i := range rules {
		want, got := rules[i], decoded[i]
		if got.ID != want.ID || got.Name != want.Name || got.Trigger != want.Trigger || got.IsActive != want.IsActive {
			t.Errorf("rule %d differs: got %+v, want %+v", i, got, want)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("rule %d createdAt did not round-trip: got %v, want %v", i, got.CreatedAt, want.CreatedAt)
		}
		if len(got.Actions) != len(want.Actions) {
			t.Fatalf("rule %d action count differs", i)
		}
		for j := range want.Actions {
			if got.Actions[j].Type != want.Actions[j].Type || got.Actions[j].Timing != want.Actions[j].Timing {
				t.Errorf("rule %d action %d differs", i, j)
			}
		}
	}
}

func TestLogCollectionRoundTrip(t *testing.T) {
	entries := []LogEntry{
		{
			ID:        uuid.New(),
			Timestamp: time.Date(2025, 6, 1, 23, 59, 59, 999999999, time.UTC),
			Severity:  SeverityError,
			Message:   "slack webhook returned 500",
			Details:   map[string]any{"rule_name": "Welcome"},
		},
		{
			ID:        uuid.New(),
			Timestamp: time.Now().UTC(),
			Severity:  SeverityInfo,
			Message:   "rule created",
		},
	}

	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []LogEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for i := range entries {
		want, got := entries[i], decoded[i]
		if got.ID != want.ID || got.Severity != want.Severity || got.Message != want.Message {
			t.Errorf("entry %d differs: got %+v, want %+v", i, got, want)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("entry %d timestamp did not round-trip: got %v, want %v", i, got.Timestamp, want.Timestamp)
		}
	}
}
