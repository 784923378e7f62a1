package service

import (
	"context"

	"paranote/internal/models"
	"paranote/internal/storage"
)

type BanService struct {
	bans storage.BanStore
}

type BanUserInput struct {
	SiteID   string
	UserID   string
	Reason   string
	BannedBy string
}

func NewBanService(bans storage.BanStore) *BanService {
	return &BanService{bans: bans}
}

// BanUser records a site-scoped ban. Banning an already banned user
// updates the stored reason and moderator.
func (s *BanService) BanUser(ctx context.Context, in BanUserInput) error {
	if err := s.bans.BanUser(ctx, models.BanRecord{
		SiteID:   in.SiteID,
		UserID:   in.UserID,
		Reason:   in.Reason,
		BannedBy: in.BannedBy,
	}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// UnbanUser lifts a ban, reporting not_found when none exists.
func (s *BanService) UnbanUser(ctx context.Context, siteID, userID string) error {
	removed, err := s.bans.UnbanUser(ctx, siteID, userID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewNotFoundError("ban", userID)
	}
	return nil
}

// IsUserBanned is the point lookup used before accepting a comment.
func (s *BanService) IsUserBanned(ctx context.Context, siteID, userID string) (bool, error) {
	banned, err := s.bans.IsUserBanned(ctx, siteID, userID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return banned, nil
}

// ListBannedUsers returns a site's bans, most recent first.
func (s *BanService) ListBannedUsers(ctx context.Context, siteID string) ([]*models.BanRecord, error) {
	list, err := s.bans.ListBannedUsers(ctx, siteID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}
