package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hostops/automation-backend/internal/config"
	"github.com/hostops/automation-backend/internal/models"
	"go.uber.org/zap"
)

func newTestNLPClient(endpoint, key string) (*NLPClient, *ActivityLog) {
	activity, _, _ := newTestLog()
	cfg := &config.Config{
		OpenAIAPIKey:   key,
		OpenAIEndpoint: endpoint,
		OpenAIModel:    "gpt-3.5-turbo",
		NLPTimeout:     5 * time.Second,
	}
	return NewNLPClient(cfg, activity, zap.NewNop()), activity
}

func chatReply(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestTranslateWithoutCredential(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client, activity := newTestNLPClient(srv.URL, "")

	_, err := client.Translate(context.Background(), "email guests on check-in", models.AvailableTriggers(), models.AvailableActions())

	var aerr *AdapterError
	if !errors.As(err, &aerr) || aerr.Reason != AdapterMissingCredential {
		t.Fatalf("expected missing_credential AdapterError, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("no request may reach the transport without a credential")
	}

	entries := activity.Entries()
	if len(entries) != 1 || entries[0].Severity != models.SeverityWarning {
		t.Errorf("expected exactly one WARNING entry, got %+v", entries)
	}
}

func TestTranslateHappyPath(t *testing.T) {
	candidate := models.RuleDraft{
		Name:    "Welcome email",
		Trigger: models.Trigger{Type: models.TriggerCheckIn, Description: "Guest checks in"},
		Actions: []models.Action{{
			Type:   models.ActionEmail,
			Config: map[string]any{"subject": "Welcome!"},
			Timing: models.ActionTiming{Type: models.TimingImmediate},
		}},
	}
	content, _ := json.Marshal(candidate)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("missing bearer credential, got %q", got)
		}
		w.Write(chatReply(t, string(content)))
	}))
	defer srv.Close()

	client, _ := newTestNLPClient(srv.URL, "sk-test")

	draft, err := client.Translate(context.Background(), "email guests on check-in", models.AvailableTriggers(), models.AvailableActions())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if draft.Name != candidate.Name || draft.Trigger.Type != candidate.Trigger.Type {
		t.Errorf("draft differs: %+v", draft)
	}
	if len(draft.Actions) != 1 || draft.Actions[0].Type != models.ActionEmail {
		t.Errorf("actions differ: %+v", draft.Actions)
	}
}

func TestTranslateUnwrapsCodeFence(t *testing.T) {
	content := "```json\n{\"name\":\"Fenced\",\"trigger\":{\"type\":\"CHECK_IN\"},\"actions\":[]}\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply(t, content))
	}))
	defer srv.Close()

	client, _ := newTestNLPClient(srv.URL, "sk-test")
	draft, err := client.Translate(context.Background(), "anything", models.AvailableTriggers(), models.AvailableActions())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if draft.Name != "Fenced" {
		t.Errorf("name = %q", draft.Name)
	}
}

func TestTranslateMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply(t, "sorry, I can't do that"))
	}))
	defer srv.Close()

	client, activity := newTestNLPClient(srv.URL, "sk-test")

	_, err := client.Translate(context.Background(), "anything", models.AvailableTriggers(), models.AvailableActions())

	var aerr *AdapterError
	if !errors.As(err, &aerr) || aerr.Reason != AdapterMalformedResponse {
		t.Fatalf("expected malformed_response AdapterError, got %v", err)
	}
	if len(activity.Entries()) == 0 || activity.Entries()[0].Severity != models.SeverityError {
		t.Error("expected an ERROR entry for the malformed response")
	}
}

func TestTranslateTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, activity := newTestNLPClient(srv.URL, "sk-test")

	_, err := client.Translate(context.Background(), "anything", models.AvailableTriggers(), models.AvailableActions())

	var aerr *AdapterError
	if !errors.As(err, &aerr) || aerr.Reason != AdapterTransportFailure {
		t.Fatalf("expected transport_failure AdapterError, got %v", err)
	}
	if len(activity.Entries()) == 0 || activity.Entries()[0].Severity != models.SeverityError {
		t.Error("expected an ERROR entry for the transport failure")
	}
}

func TestTranslateConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // port is now dead

	client, _ := newTestNLPClient(srv.URL, "sk-test")

	_, err := client.Translate(context.Background(), "anything", models.AvailableTriggers(), models.AvailableActions())

	var aerr *AdapterError
	if !errors.As(err, &aerr) || aerr.Reason != AdapterTransportFailure {
		t.Fatalf("expected transport_failure AdapterError, got %v", err)
	}
}

func TestSetAPIKeyEnablesTranslation(t *testing.T) {
	client, _ := newTestNLPClient("http://unused", "")

	if client.HasAPIKey() {
		t.Error("client should start without a key")
	}
	client.SetAPIKey("sk-new")
	if !client.HasAPIKey() {
		t.Error("key should be configured after SetAPIKey")
	}
}

func TestBuildPromptListsCatalogs(t *testing.T) {
	prompt := buildPrompt("turn on AC at check-in", models.AvailableTriggers(), models.AvailableActions())

	for _, trigger := range models.AvailableTriggers() {
		if !containsAll(prompt, trigger.Type, trigger.Description) {
			t.Errorf("prompt missing trigger %s", trigger.Type)
		}
	}
	for _, action := range models.AvailableActions() {
		if !containsAll(prompt, action.Type, action.Description) {
			t.Errorf("prompt missing action %s", action.Type)
		}
	}
	if !containsAll(prompt, "turn on AC at check-in") {
		t.Error("prompt missing the user input")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
