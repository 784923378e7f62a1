package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"paranote/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract asserts the behavior every backend must share. The
// file backend always runs it; the mongo backend runs it when a test
// server is available.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	scope := Scope{SiteID: "site-a", WorkID: "work-1", ChapterID: "ch-1"}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newComment := func(id string, paraIndex int, parentID string, createdAt time.Time) *models.Comment {
		return &models.Comment{
			ID:        id,
			SiteID:    scope.SiteID,
			WorkID:    scope.WorkID,
			ChapterID: scope.ChapterID,
			ParaIndex: paraIndex,
			Content:   "content " + id,
			ParentID:  parentID,
			CreatedAt: createdAt,
		}
	}

	t.Run("unknown scope lists empty", func(t *testing.T) {
		store := newStore(t)
		got, err := store.ListComments(context.Background(), Scope{SiteID: "nope", WorkID: "nope", ChapterID: "nope"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("create assigns id and timestamp", func(t *testing.T) {
		store := newStore(t)
		c := newComment("", 0, "", time.Time{})
		created, err := store.CreateComment(context.Background(), c)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("list threads replies and orders by heat", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		a := newComment("a", 1, "", base)
		c := newComment("c", 1, "", base.Add(1*time.Minute))
		b := newComment("b", 1, "", base.Add(2*time.Minute))
		r1 := newComment("r1", 1, "b", base.Add(3*time.Minute))
		r2 := newComment("r2", 1, "b", base.Add(4*time.Minute))
		deep := newComment("deep", 1, "r1", base.Add(5*time.Minute))
		for _, cm := range []*models.Comment{a, c, b, r1, r2, deep} {
			_, err := store.CreateComment(ctx, cm)
			require.NoError(t, err)
		}
		for i := 0; i < 2; i++ {
			_, err := store.LikeComment(ctx, scope, "b", fmt.Sprintf("liker-b-%d", i))
			require.NoError(t, err)
			_, err = store.LikeComment(ctx, scope, "c", fmt.Sprintf("liker-c-%d", i))
			require.NoError(t, err)
		}
		_, err := store.LikeComment(ctx, scope, "a", "liker-a-0")
		require.NoError(t, err)

		grouped, err := store.ListComments(ctx, scope)
		require.NoError(t, err)
		top := grouped["1"]
		require.Len(t, top, 3)

		// b and c tie at two likes; b is newer so it leads.
		assert.Equal(t, "b", top[0].ID)
		assert.Equal(t, "c", top[1].ID)
		assert.Equal(t, "a", top[2].ID)

		require.Len(t, top[0].Replies, 2)
		assert.Equal(t, 2, top[0].ReplyCount)
		assert.Equal(t, "r1", top[0].Replies[0].ID)
		assert.Equal(t, "r2", top[0].Replies[1].ID)
		require.Len(t, top[0].Replies[0].Replies, 1)
		assert.Equal(t, "deep", top[0].Replies[0].Replies[0].ID)
	})

	t.Run("scopes are isolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.CreateComment(ctx, newComment("here", 0, "", base))
		require.NoError(t, err)

		other := newComment("elsewhere", 0, "", base)
		other.ChapterID = "ch-2"
		_, err = store.CreateComment(ctx, other)
		require.NoError(t, err)

		grouped, err := store.ListComments(ctx, scope)
		require.NoError(t, err)
		require.Len(t, grouped["0"], 1)
		assert.Equal(t, "here", grouped["0"][0].ID)
	})

	t.Run("like dedups per user", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.CreateComment(ctx, newComment("liked", 0, "", base))
		require.NoError(t, err)

		updated, err := store.LikeComment(ctx, scope, "liked", "user-1")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, 1, updated.Likes)

		dup, err := store.LikeComment(ctx, scope, "liked", "user-1")
		require.NoError(t, err)
		assert.Nil(t, dup)

		second, err := store.LikeComment(ctx, scope, "liked", "user-2")
		require.NoError(t, err)
		require.NotNil(t, second)
		assert.Equal(t, 2, second.Likes)
	})

	t.Run("like missing comment yields nil", func(t *testing.T) {
		store := newStore(t)
		updated, err := store.LikeComment(context.Background(), scope, "ghost", "user-1")
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("delete is idempotent and orphans replies", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.CreateComment(ctx, newComment("parent", 0, "", base))
		require.NoError(t, err)
		_, err = store.CreateComment(ctx, newComment("child", 0, "parent", base.Add(time.Minute)))
		require.NoError(t, err)

		removed, err := store.DeleteComment(ctx, scope, "parent")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.DeleteComment(ctx, scope, "parent")
		require.NoError(t, err)
		assert.False(t, removed)

		// The reply survives and now renders at top level.
		grouped, err := store.ListComments(ctx, scope)
		require.NoError(t, err)
		require.Len(t, grouped["0"], 1)
		assert.Equal(t, "child", grouped["0"][0].ID)
	})

	t.Run("export import round trip", func(t *testing.T) {
		src := newStore(t)
		dst := newStore(t)
		ctx := context.Background()

		_, err := src.CreateComment(ctx, newComment("x1", 0, "", base))
		require.NoError(t, err)
		other := newComment("x2", 4, "", base.Add(time.Minute))
		other.WorkID = "work-2"
		_, err = src.CreateComment(ctx, other)
		require.NoError(t, err)

		dump, err := src.ExportAll(ctx)
		require.NoError(t, err)
		require.Len(t, dump, 2)

		count, err := dst.ImportAll(ctx, dump)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		roundTripped, err := dst.ExportAll(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(roundTripped))
		for _, c := range roundTripped {
			ids = append(ids, c.ID)
		}
		assert.ElementsMatch(t, []string{"x1", "x2"}, ids)
	})

	t.Run("import skips records missing scope fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		broken := newComment("broken", 0, "", base)
		broken.WorkID = ""
		count, err := store.ImportAll(ctx, []*models.Comment{
			newComment("ok", 0, "", base),
			broken,
			{ID: "no-scope", Content: "dangling"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		all, err := store.ExportAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "ok", all[0].ID)
	})

	t.Run("import upserts by id", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.CreateComment(ctx, newComment("dup", 0, "", base))
		require.NoError(t, err)

		edited := newComment("dup", 0, "", base)
		edited.Content = "edited content"
		count, err := store.ImportAll(ctx, []*models.Comment{edited})
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		all, err := store.ExportAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "edited content", all[0].Content)
	})

	t.Run("ban upsert and point lookup", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		banned, err := store.IsUserBanned(ctx, "site-a", "troll")
		require.NoError(t, err)
		assert.False(t, banned)

		require.NoError(t, store.BanUser(ctx, models.BanRecord{
			SiteID: "site-a", UserID: "troll", Reason: "spam", BannedBy: "mod-1", BannedAt: base,
		}))
		banned, err = store.IsUserBanned(ctx, "site-a", "troll")
		require.NoError(t, err)
		assert.True(t, banned)

		// Bans are per site.
		banned, err = store.IsUserBanned(ctx, "site-b", "troll")
		require.NoError(t, err)
		assert.False(t, banned)

		// Re-banning updates the record in place.
		require.NoError(t, store.BanUser(ctx, models.BanRecord{
			SiteID: "site-a", UserID: "troll", Reason: "abuse", BannedBy: "mod-2", BannedAt: base.Add(time.Hour),
		}))
		list, err := store.ListBannedUsers(ctx, "site-a")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "abuse", list[0].Reason)
		assert.Equal(t, "mod-2", list[0].BannedBy)
	})

	t.Run("unban reports missing bans", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.BanUser(ctx, models.BanRecord{
			SiteID: "site-a", UserID: "troll", BannedBy: "mod-1", BannedAt: base,
		}))

		removed, err := store.UnbanUser(ctx, "site-a", "troll")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.UnbanUser(ctx, "site-a", "troll")
		require.NoError(t, err)
		assert.False(t, removed)

		banned, err := store.IsUserBanned(ctx, "site-a", "troll")
		require.NoError(t, err)
		assert.False(t, banned)
	})

	t.Run("banned users list is most recent first", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for i, user := range []string{"first", "second", "third"} {
			require.NoError(t, store.BanUser(ctx, models.BanRecord{
				SiteID:   "site-a",
				UserID:   user,
				BannedBy: "mod-1",
				BannedAt: base.Add(time.Duration(i) * time.Hour),
			}))
		}

		list, err := store.ListBannedUsers(ctx, "site-a")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "third", list[0].UserID)
		assert.Equal(t, "second", list[1].UserID)
		assert.Equal(t, "first", list[2].UserID)
	})
}

func TestFileBackendContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		store, err := NewFileBackend(t.TempDir())
		require.NoError(t, err)
		return store
	})
}

func TestInstrumentedStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		store, err := NewFileBackend(t.TempDir())
		require.NoError(t, err)
		return Instrument("file", store)
	})
}

func TestMongoBackendContract(t *testing.T) {
	uri := os.Getenv("PARANOTE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PARANOTE_TEST_MONGO_URI not set")
	}

	runStoreContract(t, func(t *testing.T) Store {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dbName := "paranote_test_" + uuid.NewString()[:8]
		store, err := NewMongoBackend(ctx, uri, dbName)
		require.NoError(t, err)
		t.Cleanup(func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = store.client.Database(dbName).Drop(cleanupCtx)
			_ = store.Close(cleanupCtx)
		})
		return store
	})
}
