package storage

import (
	"sort"

	"paranote/internal/models"
)

// BuildThreads assembles a scope's flat comment list into the threaded,
// grouped shape every backend returns from ListComments. Keeping this in
// one place guarantees the file and document backends produce identical
// output for the same records.
//
// Rules:
//   - a comment whose parent is present in the list nests under it,
//     recursively to any depth; replies sort oldest first
//   - a comment with no parent, or whose parent is missing (deleted
//     parents orphan their replies), is top level
//   - a parent chain that loops back on itself (possible via imported
//     records) is promoted to top level with the looping edge dropped,
//     so no comment silently disappears
//   - top-level comments sort by likes descending, ties broken by
//     creation time descending
//   - ReplyCount counts direct replies only
//   - the result groups top-level comments by decimal paragraph index
func BuildThreads(all []*models.Comment) map[string][]*models.Comment {
	byID := make(map[string]*models.Comment, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	children := make(map[string][]*models.Comment)
	var topLevel []*models.Comment
	for _, c := range all {
		c.Replies = nil
		c.ReplyCount = 0
		if c.ParentID != "" {
			if _, ok := byID[c.ParentID]; ok {
				children[c.ParentID] = append(children[c.ParentID], c)
				continue
			}
		}
		topLevel = append(topLevel, c)
	}

	attached := make(map[string]bool, len(all))
	var attach func(c *models.Comment)
	attach = func(c *models.Comment) {
		attached[c.ID] = true
		kids := make([]*models.Comment, 0, len(children[c.ID]))
		for _, k := range children[c.ID] {
			if !attached[k.ID] {
				kids = append(kids, k)
			}
		}
		sort.SliceStable(kids, func(i, j int) bool {
			return kids[i].CreatedAt.Before(kids[j].CreatedAt)
		})
		c.Replies = kids
		c.ReplyCount = len(kids)
		for _, k := range kids {
			attach(k)
		}
	}
	for _, c := range topLevel {
		attach(c)
	}

	// Comments still unattached sit on a parent cycle with no root.
	// Promote the first member encountered; attach then walks the rest
	// of the cycle and drops the edge leading back into it.
	for _, c := range all {
		if !attached[c.ID] {
			topLevel = append(topLevel, c)
			attach(c)
		}
	}

	sort.SliceStable(topLevel, func(i, j int) bool {
		if topLevel[i].Likes != topLevel[j].Likes {
			return topLevel[i].Likes > topLevel[j].Likes
		}
		return topLevel[i].CreatedAt.After(topLevel[j].CreatedAt)
	})

	grouped := make(map[string][]*models.Comment)
	for _, c := range topLevel {
		key := ParaKey(c.ParaIndex)
		grouped[key] = append(grouped[key], c)
	}
	return grouped
}
