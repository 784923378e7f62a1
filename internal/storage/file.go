package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"paranote/internal/models"
)

const bansFileName = "bans.json"

// FileBackend keeps each scope's comments in a single JSON array file
// under dir, plus one bans.json for the moderation registry. Every write
// rewrites the whole file. A process-wide mutex serializes mutations, so
// concurrent writers within one process cannot lose updates; concurrent
// writers in separate processes still race last-write-wins. This backend
// is for development and small single-instance deployments.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend creates the data directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

// scopePath builds the scope's filename from its percent-encoded
// segments. Scope ids are validated upstream, but encoding here keeps the
// mapping total and path-safe for any input.
func (f *FileBackend) scopePath(scope Scope) string {
	name := escapeSegment(scope.SiteID) + "__" + escapeSegment(scope.WorkID) + "__" + escapeSegment(scope.ChapterID) + ".json"
	return filepath.Join(f.dir, name)
}

func escapeSegment(s string) string {
	return url.QueryEscape(s)
}

func (f *FileBackend) readScope(scope Scope) ([]*models.Comment, error) {
	data, err := os.ReadFile(f.scopePath(scope))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scope file: %w", err)
	}
	var comments []*models.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("decode scope file: %w", err)
	}
	return comments, nil
}

func (f *FileBackend) writeScope(scope Scope, comments []*models.Comment) error {
	if comments == nil {
		comments = []*models.Comment{}
	}
	data, err := json.MarshalIndent(comments, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scope file: %w", err)
	}
	if err := os.WriteFile(f.scopePath(scope), data, 0o644); err != nil {
		return fmt.Errorf("write scope file: %w", err)
	}
	return nil
}

func (f *FileBackend) ListComments(ctx context.Context, scope Scope) (map[string][]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	comments, err := f.readScope(scope)
	if err != nil {
		return nil, err
	}
	return BuildThreads(comments), nil
}

func (f *FileBackend) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stampNew(c)
	scope := Scope{SiteID: c.SiteID, WorkID: c.WorkID, ChapterID: c.ChapterID}
	comments, err := f.readScope(scope)
	if err != nil {
		return nil, err
	}
	comments = append(comments, c)
	if err := f.writeScope(scope, comments); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *FileBackend) LikeComment(ctx context.Context, scope Scope, commentID, userID string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	comments, err := f.readScope(scope)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if c.ID != commentID {
			continue
		}
		for _, liker := range c.LikedBy {
			if liker == userID {
				return nil, nil
			}
		}
		c.LikedBy = append(c.LikedBy, userID)
		c.Likes++
		if err := f.writeScope(scope, comments); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, nil
}

func (f *FileBackend) DeleteComment(ctx context.Context, scope Scope, commentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	comments, err := f.readScope(scope)
	if err != nil {
		return false, err
	}
	kept := comments[:0]
	removed := false
	for _, c := range comments {
		if c.ID == commentID {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return false, nil
	}
	if err := f.writeScope(scope, kept); err != nil {
		return false, err
	}
	return true, nil
}

func (f *FileBackend) ExportAll(ctx context.Context) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == bansFileName || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	all := []*models.Comment{}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read scope file %s: %w", name, err)
		}
		var comments []*models.Comment
		if err := json.Unmarshal(data, &comments); err != nil {
			return nil, fmt.Errorf("decode scope file %s: %w", name, err)
		}
		all = append(all, comments...)
	}
	return all, nil
}

func (f *FileBackend) ImportAll(ctx context.Context, records []*models.Comment) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Group by scope so each file is rewritten once.
	grouped := make(map[Scope][]*models.Comment)
	var order []Scope
	count := 0
	for _, rec := range records {
		rec, ok := normalizeImport(rec)
		if !ok {
			continue
		}
		scope := Scope{SiteID: rec.SiteID, WorkID: rec.WorkID, ChapterID: rec.ChapterID}
		if _, seen := grouped[scope]; !seen {
			order = append(order, scope)
		}
		grouped[scope] = append(grouped[scope], rec)
		count++
	}

	for _, scope := range order {
		existing, err := f.readScope(scope)
		if err != nil {
			return 0, err
		}
		index := make(map[string]int, len(existing))
		for i, c := range existing {
			index[c.ID] = i
		}
		for _, rec := range grouped[scope] {
			if i, ok := index[rec.ID]; ok {
				existing[i] = rec
			} else {
				index[rec.ID] = len(existing)
				existing = append(existing, rec)
			}
		}
		if err := f.writeScope(scope, existing); err != nil {
			return 0, err
		}
	}
	return count, nil
}

type bansByUser map[string]*models.BanRecord

func (f *FileBackend) readBans() (map[string]bansByUser, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, bansFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bansByUser{}, nil
		}
		return nil, fmt.Errorf("read bans file: %w", err)
	}
	bans := map[string]bansByUser{}
	if err := json.Unmarshal(data, &bans); err != nil {
		return nil, fmt.Errorf("decode bans file: %w", err)
	}
	return bans, nil
}

func (f *FileBackend) writeBans(bans map[string]bansByUser) error {
	data, err := json.MarshalIndent(bans, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bans file: %w", err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, bansFileName), data, 0o644); err != nil {
		return fmt.Errorf("write bans file: %w", err)
	}
	return nil
}

func (f *FileBackend) BanUser(ctx context.Context, rec models.BanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec.BannedAt.IsZero() {
		rec.BannedAt = time.Now().UTC()
	}
	bans, err := f.readBans()
	if err != nil {
		return err
	}
	if bans[rec.SiteID] == nil {
		bans[rec.SiteID] = bansByUser{}
	}
	bans[rec.SiteID][rec.UserID] = &rec
	return f.writeBans(bans)
}

func (f *FileBackend) UnbanUser(ctx context.Context, siteID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bans, err := f.readBans()
	if err != nil {
		return false, err
	}
	site, ok := bans[siteID]
	if !ok {
		return false, nil
	}
	if _, ok := site[userID]; !ok {
		return false, nil
	}
	delete(site, userID)
	if len(site) == 0 {
		delete(bans, siteID)
	}
	return true, f.writeBans(bans)
}

func (f *FileBackend) IsUserBanned(ctx context.Context, siteID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bans, err := f.readBans()
	if err != nil {
		return false, err
	}
	_, banned := bans[siteID][userID]
	return banned, nil
}

func (f *FileBackend) ListBannedUsers(ctx context.Context, siteID string) ([]*models.BanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bans, err := f.readBans()
	if err != nil {
		return nil, err
	}
	out := make([]*models.BanRecord, 0, len(bans[siteID]))
	for _, rec := range bans[siteID] {
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BannedAt.After(out[j].BannedAt)
	})
	return out, nil
}

func (f *FileBackend) Ping(ctx context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

func (f *FileBackend) Close(ctx context.Context) error {
	return nil
}
