package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hostops/automation-backend/internal/models"
	"go.uber.org/zap"
)

// RegisterDefaultEffectors wires the catalog's action types. Apart from
// Slack, which posts to a webhook when one is configured, the built-in
// effectors record their effect in the activity log; the actual email,
// task and device systems sit behind other integrations.
func RegisterDefaultEffectors(d *Dispatcher, activity *ActivityLog, slack *SlackNotifier) {
	d.Register(models.ActionEmail, EffectorFunc(func(action models.Action, ctx map[string]any) {
		subject, _ := action.Config["subject"].(string)
		activity.Info(fmt.Sprintf("sending email: %s", subject), ctx)
	}))

	d.Register(models.ActionSlack, slack)

	d.Register(models.ActionNotification, EffectorFunc(func(action models.Action, ctx map[string]any) {
		message, _ := action.Config["message"].(string)
		activity.Info(fmt.Sprintf("system notification: %s", message), ctx)
	}))

	d.Register(models.ActionTask, EffectorFunc(func(action models.Action, ctx map[string]any) {
		title, _ := action.Config["title"].(string)
		activity.Info(fmt.Sprintf("creating task: %s", title), ctx)
	}))

	d.Register(models.ActionDeviceControl, EffectorFunc(func(action models.Action, ctx map[string]any) {
		deviceID, _ := action.Config["device_id"].(string)
		state := "OFF"
		if on, _ := action.Config["turn_on"].(bool); on {
			state = "ON"
		}
		activity.Info(fmt.Sprintf("setting device %s to %s", deviceID, state), ctx)
	}))
}

// SlackNotifier posts action messages to an incoming webhook. With no
// webhook configured it degrades to an activity-log record.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	activity   *ActivityLog
	log        *zap.Logger
}

func NewSlackNotifier(webhookURL string, activity *ActivityLog, log *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		activity: activity,
		log:      log,
	}
}

func (s *SlackNotifier) Execute(action models.Action, ctx map[string]any) {
	message, _ := action.Config["message"].(string)

	if s.webhookURL == "" {
		s.activity.Info(fmt.Sprintf("posting to Slack: %s", message), ctx)
		return
	}

	body, _ := json.Marshal(map[string]any{"text": message})
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.webhookURL, strings.NewReader(string(body)))
	if err != nil {
		s.activity.Error("slack request build failed: "+err.Error(), ctx)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn("slack webhook unavailable", zap.Error(err))
		s.activity.Error("slack webhook unavailable: "+err.Error(), ctx)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.activity.Error(fmt.Sprintf("slack webhook returned %d", resp.StatusCode), ctx)
		return
	}

	s.activity.Info(fmt.Sprintf("posted to Slack: %s", message), ctx)
}
