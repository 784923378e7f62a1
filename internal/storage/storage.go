// Package storage provides the persistence backends for comments and bans.
// Both backends implement the same Store contract and must be
// behaviorally indistinguishable to callers; the contract test suite in
// this package runs against every implementation.
package storage

import (
	"context"
	"strconv"
	"time"

	"paranote/internal/models"

	"github.com/google/uuid"
)

// Scope addresses one chapter's worth of comments.
type Scope struct {
	SiteID    string
	WorkID    string
	ChapterID string
}

// Backend is the comment persistence contract.
type Backend interface {
	// ListComments returns the scope's comments as threads grouped by
	// decimal paragraph index. Unknown scopes yield an empty map.
	ListComments(ctx context.Context, scope Scope) (map[string][]*models.Comment, error)

	// CreateComment persists a new comment, assigning its id and
	// creation time when unset, and returns the stored record.
	CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error)

	// LikeComment records one like by userID. It returns the updated
	// comment, or (nil, nil) when the comment does not exist or the user
	// already liked it; the two cases are deliberately indistinguishable.
	LikeComment(ctx context.Context, scope Scope, commentID, userID string) (*models.Comment, error)

	// DeleteComment removes a single comment and reports whether a
	// record was removed. Replies are not cascaded.
	DeleteComment(ctx context.Context, scope Scope, commentID string) (bool, error)

	// ExportAll returns every stored comment across all scopes, flat.
	ExportAll(ctx context.Context) ([]*models.Comment, error)

	// ImportAll upserts records by id and returns the processed count.
	// Records missing any scope field are skipped silently; the import
	// as a whole is not atomic.
	ImportAll(ctx context.Context, records []*models.Comment) (int, error)
}

// BanStore is the site-scoped moderation registry contract.
type BanStore interface {
	// BanUser records a ban, updating the existing record when the user
	// is already banned.
	BanUser(ctx context.Context, rec models.BanRecord) error

	// UnbanUser lifts a ban and reports whether one existed.
	UnbanUser(ctx context.Context, siteID, userID string) (bool, error)

	// IsUserBanned is the point lookup used on the comment hot path.
	IsUserBanned(ctx context.Context, siteID, userID string) (bool, error)

	// ListBannedUsers returns a site's bans, most recent first.
	ListBannedUsers(ctx context.Context, siteID string) ([]*models.BanRecord, error)
}

// Store is the full persistence surface a backend provides.
type Store interface {
	Backend
	BanStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ParaKey converts a paragraph index to its map key form.
func ParaKey(paraIndex int) string {
	return strconv.Itoa(paraIndex)
}

// stampNew fills in the server-assigned fields of a fresh comment.
func stampNew(c *models.Comment) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}

// normalizeImport validates one import record. Records without a full
// scope are dropped; records without an id get a fresh one so they land
// as inserts rather than colliding on an empty id.
func normalizeImport(rec *models.Comment) (*models.Comment, bool) {
	if rec == nil || !rec.HasScope() {
		return nil, false
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Replies = nil
	rec.ReplyCount = 0
	return rec, true
}
