package server

import (
	"context"
	"crypto/subtle"
	"errors"

	"paranote/internal/identity"
	"paranote/internal/middleware"
	"paranote/internal/models"
	"paranote/internal/observability"
	"paranote/internal/storage"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// tokenHeader carries the optional site-scoped JWT of the commenter.
const tokenHeader = "X-Paranote-Token"

// adminSecretHeader carries the deployment-wide admin secret for bulk and
// moderation endpoints called from server-side scripts.
const adminSecretHeader = "X-Admin-Secret"

// requireScope reads the three scope query parameters. On missing values
// it writes a 400 response and returns errResponseWritten.
func (s *Server) requireScope(c *fiber.Ctx) (storage.Scope, error) {
	scope := storage.Scope{
		SiteID:    c.Query("siteId"),
		WorkID:    c.Query("workId"),
		ChapterID: c.Query("chapterId"),
	}

	var missing []string
	if scope.SiteID == "" {
		missing = append(missing, "siteId")
	}
	if scope.WorkID == "" {
		missing = append(missing, "workId")
	}
	if scope.ChapterID == "" {
		missing = append(missing, "chapterId")
	}
	if len(missing) > 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewMissingParamsError(missing...))
		return storage.Scope{}, errResponseWritten
	}
	return scope, nil
}

// resolveIdentity returns who is making this request for the given site:
// the verified token identity when a valid token is present, otherwise the
// stable anonymous identity for the caller's address. The resolved user id
// is stored in locals and the request context for logging.
func (s *Server) resolveIdentity(c *fiber.Ctx, siteID string) identity.Identity {
	id, ok := s.resolver.Resolve(c.Get(tokenHeader), siteID)
	if !ok {
		id = identity.Anonymous(c.IP(), siteID)
	}

	c.Locals("userID", id.UserID)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, id.UserID)
	c.SetUserContext(ctx)

	observability.AddTraceAttributesToContext(ctx,
		attribute.Bool("user.anonymous", id.Anonymous))
	return id
}

// hasAdminSecret reports whether the request carries the deployment admin
// secret. An unset secret disables this path entirely.
func (s *Server) hasAdminSecret(c *fiber.Ctx) bool {
	if s.config.AdminSecret == "" {
		return false
	}
	provided := c.Get(adminSecretHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.config.AdminSecret)) == 1
}

// moderatorFor resolves the moderation actor for a site. Admin-secret
// callers act as the deployment operator; token callers must carry an
// admin claim, or an author claim when allowAuthor is set.
func (s *Server) moderatorFor(c *fiber.Ctx, siteID string, allowAuthor bool) (actor string, ok bool) {
	if s.hasAdminSecret(c) {
		return "admin-secret", true
	}

	id, valid := s.resolver.Resolve(c.Get(tokenHeader), siteID)
	if !valid {
		return "", false
	}
	if id.Admin || (allowAuthor && id.Author) {
		return id.UserID, true
	}
	return id.UserID, false
}

// respondServiceError maps an AppError code onto its HTTP status.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	observability.RecordErrorInContext(c.UserContext(), err)

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "validation_failed", "missing_params":
			status = fiber.StatusBadRequest
		case "user_banned", "permission_denied":
			status = fiber.StatusForbidden
		case "not_found":
			status = fiber.StatusNotFound
		}
	}
	return models.RespondWithError(c, status, err)
}
