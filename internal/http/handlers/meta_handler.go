package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hostops/automation-backend/internal/http/dto"
	"github.com/hostops/automation-backend/internal/models"
	"github.com/hostops/automation-backend/internal/services"
)

// MetaHandler exposes the trigger and action catalogs.
type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

func (h *MetaHandler) GetTriggers(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: models.AvailableTriggers()})
}

func (h *MetaHandler) GetActions(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: models.AvailableActions()})
}

// StatsHandler serves the dashboard counters.
type StatsHandler struct {
	rules     *services.RuleService
	scheduler *services.Scheduler
	activity  *services.ActivityLog
}

func NewStatsHandler(rules *services.RuleService, scheduler *services.Scheduler, activity *services.ActivityLog) *StatsHandler {
	return &StatsHandler{rules: rules, scheduler: scheduler, activity: activity}
}

func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	rules := h.rules.List()
	active := 0
	for _, rule := range rules {
		if rule.IsActive {
			active++
		}
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.StatsResponse{
		TotalRules:       len(rules),
		ActiveRules:      active,
		PendingSchedules: len(h.scheduler.Pending()),
		LogEntries:       len(h.activity.Entries()),
	}})
}
