package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hostops/automation-backend/internal/http/dto"
	"github.com/hostops/automation-backend/internal/models"
	"github.com/hostops/automation-backend/internal/services"
	"go.uber.org/zap"
)

type NLPHandler struct {
	nlp      *services.NLPClient
	activity *services.ActivityLog
	log      *zap.Logger
}

func NewNLPHandler(nlp *services.NLPClient, activity *services.ActivityLog, log *zap.Logger) *NLPHandler {
	return &NLPHandler{nlp: nlp, activity: activity, log: log}
}

// Parse turns free text into a candidate rule draft. The draft is not
// stored; the client reviews it and submits it through the normal rule
// creation endpoint. Translator output is untrusted and re-validated
// against the catalogs here.
func (h *NLPHandler) Parse(c *fiber.Ctx) error {
	var req dto.ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request", "")
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "text is required", "")
	}

	draft, err := h.nlp.Translate(c.Context(), req.Text, models.AvailableTriggers(), models.AvailableActions())
	if err != nil {
		var aerr *services.AdapterError
		if errors.As(err, &aerr) {
			status := fiber.StatusBadGateway
			if aerr.Reason == services.AdapterMissingCredential {
				status = fiber.StatusPreconditionFailed
			}
			return errorJSON(c, status, aerr.Detail, aerr.Reason)
		}
		h.log.Error("nlp parse failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "internal error", "")
	}

	if err := draft.Validate(); err != nil {
		h.activity.Warning("nlp produced an invalid rule: "+err.Error(), map[string]any{
			"input": req.Text,
		})
		return errorJSON(c, fiber.StatusUnprocessableEntity, "translation produced an invalid rule: "+err.Error(), "invalid_candidate")
	}

	h.activity.Info("nlp produced a candidate rule: "+draft.Name, map[string]any{
		"trigger_type": draft.Trigger.Type,
		"actions":      len(draft.Actions),
	})
	return c.JSON(dto.SuccessResponse{OK: true, Data: draft})
}

type SettingsHandler struct {
	nlp *services.NLPClient
	log *zap.Logger
}

func NewSettingsHandler(nlp *services.NLPClient, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{nlp: nlp, log: log}
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.SettingsResponse{
		NLPKeyConfigured: h.nlp.HasAPIKey(),
	}})
}

// SetNLPKey replaces the translator credential for the running process.
// The key itself is never echoed back.
func (h *SettingsHandler) SetNLPKey(c *fiber.Ctx) error {
	var req dto.SetNLPKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request", "")
	}
	if req.APIKey == "" {
		return errorJSON(c, fiber.StatusBadRequest, "api_key is required", "")
	}

	h.nlp.SetAPIKey(req.APIKey)
	h.log.Info("nlp api key updated")
	return c.JSON(dto.SuccessResponse{OK: true})
}
