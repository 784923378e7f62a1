package service

import (
	"context"
	"errors"
	"testing"

	"paranote/internal/models"
	"paranote/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendStub is a stub for storage.Backend.
type backendStub struct {
	listFn   func(context.Context, storage.Scope) (map[string][]*models.Comment, error)
	createFn func(context.Context, *models.Comment) (*models.Comment, error)
	likeFn   func(context.Context, storage.Scope, string, string) (*models.Comment, error)
	deleteFn func(context.Context, storage.Scope, string) (bool, error)
	exportFn func(context.Context) ([]*models.Comment, error)
	importFn func(context.Context, []*models.Comment) (int, error)
}

func (s *backendStub) ListComments(ctx context.Context, scope storage.Scope) (map[string][]*models.Comment, error) {
	return s.listFn(ctx, scope)
}
func (s *backendStub) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	return s.createFn(ctx, c)
}
func (s *backendStub) LikeComment(ctx context.Context, scope storage.Scope, commentID, userID string) (*models.Comment, error) {
	return s.likeFn(ctx, scope, commentID, userID)
}
func (s *backendStub) DeleteComment(ctx context.Context, scope storage.Scope, commentID string) (bool, error) {
	return s.deleteFn(ctx, scope, commentID)
}
func (s *backendStub) ExportAll(ctx context.Context) ([]*models.Comment, error) {
	return s.exportFn(ctx)
}
func (s *backendStub) ImportAll(ctx context.Context, records []*models.Comment) (int, error) {
	return s.importFn(ctx, records)
}

// banStoreStub is a stub for storage.BanStore.
type banStoreStub struct {
	banFn      func(context.Context, models.BanRecord) error
	unbanFn    func(context.Context, string, string) (bool, error)
	isBannedFn func(context.Context, string, string) (bool, error)
	listFn     func(context.Context, string) ([]*models.BanRecord, error)
}

func (s *banStoreStub) BanUser(ctx context.Context, rec models.BanRecord) error {
	return s.banFn(ctx, rec)
}
func (s *banStoreStub) UnbanUser(ctx context.Context, siteID, userID string) (bool, error) {
	return s.unbanFn(ctx, siteID, userID)
}
func (s *banStoreStub) IsUserBanned(ctx context.Context, siteID, userID string) (bool, error) {
	return s.isBannedFn(ctx, siteID, userID)
}
func (s *banStoreStub) ListBannedUsers(ctx context.Context, siteID string) ([]*models.BanRecord, error) {
	return s.listFn(ctx, siteID)
}

func noopBackend() *backendStub {
	return &backendStub{
		listFn: func(_ context.Context, _ storage.Scope) (map[string][]*models.Comment, error) {
			return map[string][]*models.Comment{}, nil
		},
		createFn: func(_ context.Context, c *models.Comment) (*models.Comment, error) {
			c.ID = "generated"
			return c, nil
		},
		likeFn: func(_ context.Context, _ storage.Scope, _, _ string) (*models.Comment, error) {
			return nil, nil
		},
		deleteFn: func(_ context.Context, _ storage.Scope, _ string) (bool, error) { return true, nil },
		exportFn: func(_ context.Context) ([]*models.Comment, error) { return nil, nil },
		importFn: func(_ context.Context, _ []*models.Comment) (int, error) { return 0, nil },
	}
}

func noopBanStore() *banStoreStub {
	return &banStoreStub{
		banFn:      func(_ context.Context, _ models.BanRecord) error { return nil },
		unbanFn:    func(_ context.Context, _, _ string) (bool, error) { return true, nil },
		isBannedFn: func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		listFn:     func(_ context.Context, _ string) ([]*models.BanRecord, error) { return nil, nil },
	}
}

func testScope() storage.Scope {
	return storage.Scope{SiteID: "site-a", WorkID: "work-1", ChapterID: "ch-1"}
}

func intPtr(v int) *int { return &v }

func validCreateInput() CreateCommentInput {
	return CreateCommentInput{
		Scope:     testScope(),
		ParaIndex: intPtr(0),
		Content:   "hello there",
		UserID:    "u-1",
		UserName:  "reader",
	}
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestCommentService_CreateComment_Success(t *testing.T) {
	t.Parallel()

	svc := NewCommentService(noopBackend(), noopBanStore())
	created, err := svc.CreateComment(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, "generated", created.ID)
	assert.Equal(t, "site-a", created.SiteID)
	assert.Equal(t, "hello there", created.Content)
}

func TestCommentService_CreateComment_TrimsContent(t *testing.T) {
	t.Parallel()

	var stored *models.Comment
	backend := noopBackend()
	backend.createFn = func(_ context.Context, c *models.Comment) (*models.Comment, error) {
		stored = c
		return c, nil
	}

	svc := NewCommentService(backend, noopBanStore())
	in := validCreateInput()
	in.Content = "  hello there \n"
	created, err := svc.CreateComment(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "hello there", created.Content)
	assert.Equal(t, "hello there", stored.Content)
}

func TestCommentService_CreateComment_ValidationAggregatesViolations(t *testing.T) {
	t.Parallel()

	svc := NewCommentService(noopBackend(), noopBanStore())
	in := CreateCommentInput{
		Scope:   storage.Scope{SiteID: "bad site", WorkID: "w", ChapterID: "c"},
		Content: "",
	}

	_, err := svc.CreateComment(context.Background(), in)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "validation_failed", appErr.Code)
	assert.ElementsMatch(t, []string{"invalid_siteId", "invalid_paraIndex", "empty_content"}, appErr.Details)
}

func TestCommentService_CreateComment_BannedUserRejected(t *testing.T) {
	t.Parallel()

	bans := noopBanStore()
	bans.isBannedFn = func(_ context.Context, siteID, userID string) (bool, error) {
		return siteID == "site-a" && userID == "u-1", nil
	}
	svc := NewCommentService(noopBackend(), bans)

	_, err := svc.CreateComment(context.Background(), validCreateInput())
	assert.Equal(t, "user_banned", appErrorCode(t, err))

	// Other users on the same site are unaffected.
	in := validCreateInput()
	in.UserID = "u-2"
	_, err = svc.CreateComment(context.Background(), in)
	assert.NoError(t, err)
}

func TestCommentService_CreateComment_StoreErrorWrapped(t *testing.T) {
	t.Parallel()

	backend := noopBackend()
	storeErr := errors.New("disk full")
	backend.createFn = func(_ context.Context, _ *models.Comment) (*models.Comment, error) {
		return nil, storeErr
	}
	svc := NewCommentService(backend, noopBanStore())

	_, err := svc.CreateComment(context.Background(), validCreateInput())
	assert.Equal(t, "internal_error", appErrorCode(t, err))
	assert.ErrorIs(t, err, storeErr)
}

func TestCommentService_LikeComment_PassesThroughNil(t *testing.T) {
	t.Parallel()

	svc := NewCommentService(noopBackend(), noopBanStore())
	updated, err := svc.LikeComment(context.Background(), testScope(), "missing", "u-1")
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestCommentService_DeleteComment(t *testing.T) {
	t.Parallel()

	backend := noopBackend()
	svc := NewCommentService(backend, noopBanStore())

	require.NoError(t, svc.DeleteComment(context.Background(), testScope(), "c-1"))

	backend.deleteFn = func(_ context.Context, _ storage.Scope, _ string) (bool, error) {
		return false, nil
	}
	err := svc.DeleteComment(context.Background(), testScope(), "ghost")
	assert.Equal(t, "not_found", appErrorCode(t, err))
}

func TestCommentService_ImportComments_ReturnsCount(t *testing.T) {
	t.Parallel()

	backend := noopBackend()
	backend.importFn = func(_ context.Context, records []*models.Comment) (int, error) {
		return len(records), nil
	}
	svc := NewCommentService(backend, noopBanStore())

	count, err := svc.ImportComments(context.Background(), []*models.Comment{{}, {}})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
