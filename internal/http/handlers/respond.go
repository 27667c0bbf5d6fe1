package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hostops/automation-backend/internal/http/dto"
	"github.com/hostops/automation-backend/internal/middleware"
)

// errorJSON writes the error body with the request id attached so a client
// report can be matched against the request log.
func errorJSON(c *fiber.Ctx, status int, message, reason string) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	return c.Status(status).JSON(dto.ErrorResponse{
		Error:     message,
		Reason:    reason,
		RequestID: reqID,
	})
}
