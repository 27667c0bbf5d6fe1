package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hostops/automation-backend/internal/http/dto"
	"github.com/hostops/automation-backend/internal/models"
	"github.com/hostops/automation-backend/internal/services"
	"go.uber.org/zap"
)

type RuleHandler struct {
	rules *services.RuleService
	log   *zap.Logger
}

func NewRuleHandler(rules *services.RuleService, log *zap.Logger) *RuleHandler {
	return &RuleHandler{rules: rules, log: log}
}

func (h *RuleHandler) ListRules(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.rules.List()})
}

func (h *RuleHandler) GetRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid rule id", "")
	}

	rule, err := h.rules.Get(id)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "rule not found", "")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: rule})
}

func (h *RuleHandler) CreateRule(c *fiber.Ctx) error {
	var draft models.RuleDraft
	if err := c.BodyParser(&draft); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request", "")
	}

	rule, err := h.rules.Create(c.Context(), draft)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return errorJSON(c, fiber.StatusBadRequest, verr.Error(), "")
		}
		h.log.Error("create rule failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "internal error", "")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: rule})
}

func (h *RuleHandler) UpdateRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid rule id", "")
	}

	var patch models.RulePatch
	if err := c.BodyParser(&patch); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request", "")
	}

	rule, err := h.rules.Update(c.Context(), id, patch)
	if err != nil {
		if errors.Is(err, models.ErrRuleNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "rule not found", "")
		}
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return errorJSON(c, fiber.StatusBadRequest, verr.Error(), "")
		}
		h.log.Error("update rule failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "internal error", "")
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: rule})
}

func (h *RuleHandler) DeleteRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid rule id", "")
	}

	if !h.rules.Delete(c.Context(), id) {
		return errorJSON(c, fiber.StatusNotFound, "rule not found", "")
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *RuleHandler) ToggleRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid rule id", "")
	}

	rule, err := h.rules.Toggle(c.Context(), id)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "rule not found", "")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: rule})
}
