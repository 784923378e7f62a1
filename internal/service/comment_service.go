package service

import (
	"context"
	"strings"

	"paranote/internal/models"
	"paranote/internal/observability"
	"paranote/internal/storage"
	"paranote/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type CommentService struct {
	store storage.Backend
	bans  storage.BanStore
}

type CreateCommentInput struct {
	Scope       storage.Scope
	ParaIndex   *int
	Content     string
	ContextText string
	ParentID    string
	UserID      string
	UserName    string
	UserAvatar  string
}

func NewCommentService(store storage.Backend, bans storage.BanStore) *CommentService {
	return &CommentService{
		store: store,
		bans:  bans,
	}
}

// CreateComment validates the input, enforces the site ban list and
// persists the comment. Validation reports every violated rule at once.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	span, ctx := observability.NewSpan(ctx, "service.create_comment")
	defer span.End()
	span.AddAttributes(
		attribute.String("comment.site_id", in.Scope.SiteID),
		attribute.Bool("comment.is_reply", in.ParentID != ""),
	)

	violations := validation.ValidateCommentInput(validation.CommentInput{
		SiteID:    in.Scope.SiteID,
		WorkID:    in.Scope.WorkID,
		ChapterID: in.Scope.ChapterID,
		ParaIndex: in.ParaIndex,
		Content:   in.Content,
		ParentID:  in.ParentID,
		UserName:  in.UserName,
	})
	if len(violations) > 0 {
		return nil, models.NewValidationFailedError(violations)
	}

	banned, err := s.bans.IsUserBanned(ctx, in.Scope.SiteID, in.UserID)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	if banned {
		return nil, models.NewUserBannedError(in.Scope.SiteID)
	}

	comment := &models.Comment{
		SiteID:      in.Scope.SiteID,
		WorkID:      in.Scope.WorkID,
		ChapterID:   in.Scope.ChapterID,
		ParaIndex:   *in.ParaIndex,
		Content:     strings.TrimSpace(in.Content),
		ContextText: in.ContextText,
		ParentID:    in.ParentID,
		UserID:      in.UserID,
		UserName:    in.UserName,
		UserAvatar:  in.UserAvatar,
	}
	created, err := s.store.CreateComment(ctx, comment)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	return created, nil
}

// ListComments returns the scope's threads grouped by paragraph index.
func (s *CommentService) ListComments(ctx context.Context, scope storage.Scope) (map[string][]*models.Comment, error) {
	grouped, err := s.store.ListComments(ctx, scope)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return grouped, nil
}

// LikeComment records one like. It returns nil when the comment does not
// exist or the user already liked it; callers cannot tell the two apart.
func (s *CommentService) LikeComment(ctx context.Context, scope storage.Scope, commentID, userID string) (*models.Comment, error) {
	updated, err := s.store.LikeComment(ctx, scope, commentID, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return updated, nil
}

// DeleteComment removes one comment. Replies are left in place and render
// at top level afterward.
func (s *CommentService) DeleteComment(ctx context.Context, scope storage.Scope, commentID string) error {
	removed, err := s.store.DeleteComment(ctx, scope, commentID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewNotFoundError("comment", commentID)
	}
	return nil
}

// ExportComments returns every comment across all scopes, flat.
func (s *CommentService) ExportComments(ctx context.Context) ([]*models.Comment, error) {
	all, err := s.store.ExportAll(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return all, nil
}

// ImportComments upserts the given records and returns how many were
// processed. Records missing scope fields are dropped silently.
func (s *CommentService) ImportComments(ctx context.Context, records []*models.Comment) (int, error) {
	count, err := s.store.ImportAll(ctx, records)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
