package server

import (
	"paranote/internal/models"
	"paranote/internal/observability"
	"paranote/internal/service"

	"github.com/gofiber/fiber/v2"
)

type banRequest struct {
	SiteID       string `json:"siteId"`
	TargetUserID string `json:"targetUserId"`
	Reason       string `json:"reason"`
}

// GetBannedUsers lists a site's bans, most recent first. Site admins and
// work authors may call it.
func (s *Server) GetBannedUsers(c *fiber.Ctx) error {
	siteID := c.Query("siteId")
	if siteID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewMissingParamsError("siteId"))
	}

	actor, ok := s.moderatorFor(c, siteID, true)
	if !ok {
		s.modLog.LogDenied(c.UserContext(), "list_bans", siteID, actor)
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionDeniedError("moderator access required"))
	}

	list, err := s.banService.ListBannedUsers(c.UserContext(), siteID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"bannedUsers": list,
	})
}

// BanUser bans a user on one site. Re-banning updates the stored reason.
func (s *Server) BanUser(c *fiber.Ctx) error {
	var req banRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			&models.AppError{Code: "invalid_body", Message: "request body must be JSON"})
	}
	if req.SiteID == "" {
		req.SiteID = c.Query("siteId")
	}

	var missing []string
	if req.SiteID == "" {
		missing = append(missing, "siteId")
	}
	if req.TargetUserID == "" {
		missing = append(missing, "targetUserId")
	}
	if len(missing) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewMissingParamsError(missing...))
	}

	actor, ok := s.moderatorFor(c, req.SiteID, true)
	if !ok {
		s.modLog.LogDenied(c.UserContext(), "ban_user", req.SiteID, actor)
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionDeniedError("moderator access required"))
	}

	if err := s.banService.BanUser(c.UserContext(), service.BanUserInput{
		SiteID:   req.SiteID,
		UserID:   req.TargetUserID,
		Reason:   req.Reason,
		BannedBy: actor,
	}); err != nil {
		return respondServiceError(c, err)
	}

	observability.ModerationActionsTotal.WithLabelValues("ban").Inc()
	s.modLog.LogAction(c.UserContext(), "ban_user", req.SiteID, req.TargetUserID, actor)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}

// UnbanUser lifts a ban; 404 when the user was not banned.
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	siteID := c.Query("siteId")
	targetUserID := c.Query("targetUserId")

	var missing []string
	if siteID == "" {
		missing = append(missing, "siteId")
	}
	if targetUserID == "" {
		missing = append(missing, "targetUserId")
	}
	if len(missing) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewMissingParamsError(missing...))
	}

	actor, ok := s.moderatorFor(c, siteID, true)
	if !ok {
		s.modLog.LogDenied(c.UserContext(), "unban_user", siteID, actor)
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionDeniedError("moderator access required"))
	}

	if err := s.banService.UnbanUser(c.UserContext(), siteID, targetUserID); err != nil {
		return respondServiceError(c, err)
	}

	observability.ModerationActionsTotal.WithLabelValues("unban").Inc()
	s.modLog.LogAction(c.UserContext(), "unban_user", siteID, targetUserID, actor)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}
