package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hostops/automation-backend/internal/http/dto"
	"github.com/hostops/automation-backend/internal/services"
	"go.uber.org/zap"
)

type LogHandler struct {
	activity *services.ActivityLog
	log      *zap.Logger
}

func NewLogHandler(activity *services.ActivityLog, log *zap.Logger) *LogHandler {
	return &LogHandler{activity: activity, log: log}
}

func (h *LogHandler) ListLogs(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.activity.Entries()})
}

func (h *LogHandler) ClearLogs(c *fiber.Ctx) error {
	h.activity.Clear()
	return c.JSON(dto.SuccessResponse{OK: true})
}

type ScheduleHandler struct {
	scheduler *services.Scheduler
	log       *zap.Logger
}

func NewScheduleHandler(scheduler *services.Scheduler, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, log: log}
}

func (h *ScheduleHandler) ListSchedules(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.scheduler.Pending()})
}

func (h *ScheduleHandler) CancelSchedule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid schedule id", "")
	}

	if !h.scheduler.Cancel(id) {
		return errorJSON(c, fiber.StatusNotFound, "no pending schedule with that id", "")
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
