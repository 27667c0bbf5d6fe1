package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/hostops/automation-backend/internal/config"
	"github.com/hostops/automation-backend/internal/models"
	"go.uber.org/zap"
)

// AdapterError reasons
const (
	AdapterMissingCredential = "missing_credential"
	AdapterMalformedResponse = "malformed_response"
	AdapterTransportFailure  = "transport_failure"
)

// AdapterError is the structured failure of a translation call. It never
// crosses the engine boundary as a panic; callers branch on Reason.
type AdapterError struct {
	Reason string
	Detail string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("nlp adapter failure (%s): %s", e.Reason, e.Detail)
}

// NLPClient translates free text into a candidate rule via an
// OpenAI-compatible chat completions endpoint. The credential can be
// replaced at runtime; without one, Translate fails before touching the
// transport.
type NLPClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
	activity   *ActivityLog
	log        *zap.Logger

	mu     sync.RWMutex
	apiKey string
}

func NewNLPClient(cfg *config.Config, activity *ActivityLog, log *zap.Logger) *NLPClient {
	return &NLPClient{
		endpoint: cfg.OpenAIEndpoint,
		model:    cfg.OpenAIModel,
		httpClient: &http.Client{
			Timeout: cfg.NLPTimeout,
		},
		activity: activity,
		log:      log,
		apiKey:   cfg.OpenAIAPIKey,
	}
}

func (c *NLPClient) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

func (c *NLPClient) HasAPIKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate asks the model to turn free text into a rule draft constrained
// to the supplied catalogs. The returned draft is untrusted: the caller
// must re-validate its trigger and action types before accepting it.
func (c *NLPClient) Translate(ctx context.Context, input string, triggers []models.Trigger, actions []models.ActionType) (*models.RuleDraft, error) {
	c.mu.RLock()
	apiKey := c.apiKey
	c.mu.RUnlock()

	if apiKey == "" {
		c.activity.Warning("nlp translation unavailable: no API key configured", nil)
		return nil, &AdapterError{Reason: AdapterMissingCredential, Detail: "no API key configured"}
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant that parses natural language into structured automation rules."},
			{Role: "user", Content: buildPrompt(input, triggers, actions)},
		},
		Temperature: 0.3,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &AdapterError{Reason: AdapterTransportFailure, Detail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, &AdapterError{Reason: AdapterTransportFailure, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.activity.Error("nlp service unavailable: "+err.Error(), nil)
		return nil, &AdapterError{Reason: AdapterTransportFailure, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		detail := fmt.Sprintf("nlp service returned %d: %s", resp.StatusCode, string(b))
		c.activity.Error(detail, nil)
		return nil, &AdapterError{Reason: AdapterTransportFailure, Detail: detail}
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		c.activity.Error("nlp response not decodable: "+err.Error(), nil)
		return nil, &AdapterError{Reason: AdapterMalformedResponse, Detail: err.Error()}
	}
	if len(chat.Choices) == 0 {
		c.activity.Error("nlp response contained no choices", nil)
		return nil, &AdapterError{Reason: AdapterMalformedResponse, Detail: "no choices in response"}
	}

	content := stripCodeFence(chat.Choices[0].Message.Content)

	var draft models.RuleDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		c.activity.Error("nlp response was not a parseable rule", map[string]any{"content": content})
		return nil, &AdapterError{Reason: AdapterMalformedResponse, Detail: err.Error()}
	}

	return &draft, nil
}

func buildPrompt(input string, triggers []models.Trigger, actions []models.ActionType) string {
	var b strings.Builder
	b.WriteString("Parse the following natural language automation request and convert it to a structured rule.\n")
	b.WriteString("Extract a rule name, trigger, and actions with their timing (immediate, delay in minutes, or time of day).\n\n")

	b.WriteString("Available triggers:\n")
	for _, t := range triggers {
		fmt.Fprintf(&b, "- %s (%s)\n", t.Description, t.Type)
	}

	b.WriteString("\nAvailable actions:\n")
	for _, a := range actions {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Description, a.Type)
	}

	fmt.Fprintf(&b, "\nUser input: %q\n\n", input)

	b.WriteString(`Respond in JSON format only:
{
  "name": "Rule name",
  "trigger": {"type": "one of the trigger types above", "description": "human readable description"},
  "actions": [
    {
      "type": "one of the action types above",
      "config": {},
      "timing": {"type": "immediate, delay or time_of_day", "delay_minutes": 0, "time_of_day": ""}
    }
  ]
}`)
	return b.String()
}

// stripCodeFence unwraps responses the model wrapped in a markdown fence.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
