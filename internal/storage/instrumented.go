package storage

import (
	"context"

	"paranote/internal/models"
	"paranote/internal/observability"
)

// Instrumented wraps a Store with per-operation latency metrics and
// tracing spans. The backend label tells file and mongo apart on the
// same dashboard.
type Instrumented struct {
	inner   Store
	backend string
	metrics *observability.StorageMetrics
}

// Instrument wraps store so every call is measured and traced.
func Instrument(backend string, store Store) *Instrumented {
	return &Instrumented{
		inner:   store,
		backend: backend,
		metrics: observability.NewStorageMetrics(backend),
	}
}

func (s *Instrumented) observe(ctx context.Context, op string) (context.Context, func()) {
	ctx, span := observability.TraceStorageOperation(ctx, s.backend, op)
	done := s.metrics.TrackOperation(op)
	return ctx, func() {
		done()
		span.End()
	}
}

func (s *Instrumented) ListComments(ctx context.Context, scope Scope) (map[string][]*models.Comment, error) {
	ctx, done := s.observe(ctx, "list_comments")
	defer done()
	return s.inner.ListComments(ctx, scope)
}

func (s *Instrumented) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	ctx, done := s.observe(ctx, "create_comment")
	defer done()
	return s.inner.CreateComment(ctx, c)
}

func (s *Instrumented) LikeComment(ctx context.Context, scope Scope, commentID, userID string) (*models.Comment, error) {
	ctx, done := s.observe(ctx, "like_comment")
	defer done()
	return s.inner.LikeComment(ctx, scope, commentID, userID)
}

func (s *Instrumented) DeleteComment(ctx context.Context, scope Scope, commentID string) (bool, error) {
	ctx, done := s.observe(ctx, "delete_comment")
	defer done()
	return s.inner.DeleteComment(ctx, scope, commentID)
}

func (s *Instrumented) ExportAll(ctx context.Context) ([]*models.Comment, error) {
	ctx, done := s.observe(ctx, "export_all")
	defer done()
	return s.inner.ExportAll(ctx)
}

func (s *Instrumented) ImportAll(ctx context.Context, records []*models.Comment) (int, error) {
	ctx, done := s.observe(ctx, "import_all")
	defer done()
	return s.inner.ImportAll(ctx, records)
}

func (s *Instrumented) BanUser(ctx context.Context, rec models.BanRecord) error {
	ctx, done := s.observe(ctx, "ban_user")
	defer done()
	return s.inner.BanUser(ctx, rec)
}

func (s *Instrumented) UnbanUser(ctx context.Context, siteID, userID string) (bool, error) {
	ctx, done := s.observe(ctx, "unban_user")
	defer done()
	return s.inner.UnbanUser(ctx, siteID, userID)
}

func (s *Instrumented) IsUserBanned(ctx context.Context, siteID, userID string) (bool, error) {
	ctx, done := s.observe(ctx, "is_user_banned")
	defer done()
	return s.inner.IsUserBanned(ctx, siteID, userID)
}

func (s *Instrumented) ListBannedUsers(ctx context.Context, siteID string) ([]*models.BanRecord, error) {
	ctx, done := s.observe(ctx, "list_banned_users")
	defer done()
	return s.inner.ListBannedUsers(ctx, siteID)
}

func (s *Instrumented) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *Instrumented) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}
