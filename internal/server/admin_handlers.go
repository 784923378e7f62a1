package server

import (
	"fmt"
	"time"

	"paranote/internal/models"
	"paranote/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// ExportComments streams every stored comment as one JSON array download.
// Only the deployment admin secret unlocks it; site tokens never do.
func (s *Server) ExportComments(c *fiber.Ctx) error {
	if !s.hasAdminSecret(c) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionDeniedError("admin secret required"))
	}

	all, err := s.commentService.ExportComments(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}

	filename := fmt.Sprintf("comments-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).JSON(all)
}

// ImportComments upserts a JSON array of comment records by id. Records
// missing scope fields are skipped silently; the response reports how
// many records were processed.
func (s *Server) ImportComments(c *fiber.Ctx) error {
	if !s.hasAdminSecret(c) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionDeniedError("admin secret required"))
	}

	var records []*models.Comment
	if err := c.BodyParser(&records); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, &models.AppError{
			Code:    "invalid_data_format",
			Message: "request body must be a JSON array of comments",
		})
	}

	count, err := s.commentService.ImportComments(c.UserContext(), records)
	if err != nil {
		return respondServiceError(c, err)
	}

	observability.ImportedRecordsTotal.Add(float64(count))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"count":   count,
	})
}
