package models

import "time"

// BanRecord stores a site-scoped user ban. Banning an already banned user
// updates the existing record in place.
type BanRecord struct {
	SiteID   string    `json:"siteId" bson:"siteId"`
	UserID   string    `json:"userId" bson:"userId"`
	Reason   string    `json:"reason,omitempty" bson:"reason,omitempty"`
	BannedBy string    `json:"bannedBy" bson:"bannedBy"`
	BannedAt time.Time `json:"bannedAt" bson:"bannedAt"`
}
