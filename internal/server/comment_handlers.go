package server

import (
	"errors"

	"paranote/internal/models"
	"paranote/internal/observability"
	"paranote/internal/service"
	"paranote/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	SiteID      string `json:"siteId"`
	WorkID      string `json:"workId"`
	ChapterID   string `json:"chapterId"`
	ParaIndex   *int   `json:"paraIndex"`
	Content     string `json:"content"`
	ContextText string `json:"contextText"`
	ParentID    string `json:"parentId"`
	UserName    string `json:"userName"`
}

type likeCommentRequest struct {
	SiteID    string `json:"siteId"`
	WorkID    string `json:"workId"`
	ChapterID string `json:"chapterId"`
	CommentID string `json:"commentId"`
}

// GetComments returns a chapter's comments threaded and grouped by
// paragraph index. Unknown scopes return an empty object.
func (s *Server) GetComments(c *fiber.Ctx) error {
	scope, err := s.requireScope(c)
	if err != nil {
		return nil
	}

	grouped, err := s.commentService.ListComments(c.UserContext(), scope)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"commentsByPara": grouped,
	})
}

// CreateComment accepts a new comment or reply. The author is the token
// identity when a valid X-Paranote-Token is present, otherwise a stable
// anonymous identity derived from the caller's address.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			&models.AppError{Code: "invalid_body", Message: "request body must be JSON"})
	}

	id := s.resolveIdentity(c, req.SiteID)

	userName := req.UserName
	avatar := ""
	if !id.Anonymous {
		// Verified tokens win over self-reported names.
		if id.Name != "" {
			userName = id.Name
		}
		avatar = id.Avatar
	} else if userName == "" {
		userName = id.Name
	}

	created, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		Scope:       storage.Scope{SiteID: req.SiteID, WorkID: req.WorkID, ChapterID: req.ChapterID},
		ParaIndex:   req.ParaIndex,
		Content:     req.Content,
		ContextText: req.ContextText,
		ParentID:    req.ParentID,
		UserID:      id.UserID,
		UserName:    userName,
		UserAvatar:  avatar,
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			observability.CommentsRejectedTotal.WithLabelValues(appErr.Code).Inc()
		}
		return respondServiceError(c, err)
	}

	observability.CommentsCreatedTotal.WithLabelValues(
		created.SiteID, observability.IdentityKind(id.Anonymous)).Inc()

	return c.Status(fiber.StatusCreated).JSON(created)
}

// LikeComment records one like per user per comment. A repeat like and a
// missing comment both answer 400; clients cannot probe which it was.
func (s *Server) LikeComment(c *fiber.Ctx) error {
	var req likeCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			&models.AppError{Code: "invalid_body", Message: "request body must be JSON"})
	}

	var missing []string
	if req.SiteID == "" {
		missing = append(missing, "siteId")
	}
	if req.WorkID == "" {
		missing = append(missing, "workId")
	}
	if req.ChapterID == "" {
		missing = append(missing, "chapterId")
	}
	if req.CommentID == "" {
		missing = append(missing, "commentId")
	}
	if len(missing) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewMissingParamsError(missing...))
	}

	id := s.resolveIdentity(c, req.SiteID)
	scope := storage.Scope{SiteID: req.SiteID, WorkID: req.WorkID, ChapterID: req.ChapterID}

	updated, err := s.commentService.LikeComment(c.UserContext(), scope, req.CommentID, id.UserID)
	if err != nil {
		observability.LikesTotal.WithLabelValues("error").Inc()
		return respondServiceError(c, err)
	}
	if updated == nil {
		observability.LikesTotal.WithLabelValues("noop").Inc()
		return models.RespondWithError(c, fiber.StatusBadRequest, &models.AppError{
			Code:    "already_liked_or_not_found",
			Message: "comment was already liked or does not exist",
		})
	}

	observability.LikesTotal.WithLabelValues("liked").Inc()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"likes": updated.Likes,
	})
}

// DeleteComment removes one comment. Admin only; replies stay and render
// at top level afterward.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	scope, err := s.requireScope(c)
	if err != nil {
		return nil
	}
	commentID := c.Query("commentId")
	if commentID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewMissingParamsError("commentId"))
	}

	actor, ok := s.moderatorFor(c, scope.SiteID, false)
	if !ok {
		s.modLog.LogDenied(c.UserContext(), "delete_comment", scope.SiteID, actor)
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionDeniedError("admin access required"))
	}

	if err := s.commentService.DeleteComment(c.UserContext(), scope, commentID); err != nil {
		return respondServiceError(c, err)
	}

	s.modLog.LogAction(c.UserContext(), "delete_comment", scope.SiteID, commentID, actor)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}
