package models

import "time"

// Comment is a paragraph-anchored comment. Comments are flat in storage;
// Replies and ReplyCount are computed at read time and never persisted.
type Comment struct {
	ID          string    `json:"id" bson:"id"`
	SiteID      string    `json:"siteId" bson:"siteId"`
	WorkID      string    `json:"workId" bson:"workId"`
	ChapterID   string    `json:"chapterId" bson:"chapterId"`
	ParaIndex   int       `json:"paraIndex" bson:"paraIndex"`
	Content     string    `json:"content" bson:"content"`
	ContextText string    `json:"contextText,omitempty" bson:"contextText,omitempty"`
	UserID      string    `json:"userId,omitempty" bson:"userId,omitempty"`
	UserName    string    `json:"userName,omitempty" bson:"userName,omitempty"`
	UserAvatar  string    `json:"userAvatar,omitempty" bson:"userAvatar,omitempty"`
	ParentID    string    `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Likes       int       `json:"likes" bson:"likes"`
	LikedBy     []string  `json:"likedBy,omitempty" bson:"likedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`

	Replies    []*Comment `json:"replies,omitempty" bson:"-"`
	ReplyCount int        `json:"replyCount,omitempty" bson:"-"`
}

// HasScope reports whether all three scope fields are present. Import
// silently drops records that fail this check.
func (c *Comment) HasScope() bool {
	return c.SiteID != "" && c.WorkID != "" && c.ChapterID != ""
}
