package validation

import (
	"regexp"
	"strings"
)

var safeIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

const (
	MaxIDLength       = 200
	MaxContentLength  = 10000
	MaxParaIndex      = 100000
	MaxParentIDLength = 100
	MaxUserNameLength = 100
)

// IsValidID reports whether s is usable as a scope identifier. The
// character class already excludes path separators; the ".." check keeps
// dot-only segments out of filenames built from these ids.
func IsValidID(s string) bool {
	if s == "" || len(s) > MaxIDLength {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	return safeIDRegex.MatchString(s)
}

// CommentInput carries the client-supplied fields of a new comment.
// ParaIndex is a pointer so a missing value is distinguishable from 0.
type CommentInput struct {
	SiteID    string
	WorkID    string
	ChapterID string
	ParaIndex *int
	Content   string
	ParentID  string
	UserName  string
}

// ValidateCommentInput checks every rule and returns the complete list of
// violations, never just the first one.
func ValidateCommentInput(in CommentInput) []string {
	var violations []string

	if !IsValidID(in.SiteID) {
		violations = append(violations, "invalid_siteId")
	}
	if !IsValidID(in.WorkID) {
		violations = append(violations, "invalid_workId")
	}
	if !IsValidID(in.ChapterID) {
		violations = append(violations, "invalid_chapterId")
	}

	if in.ParaIndex == nil || *in.ParaIndex < 0 || *in.ParaIndex > MaxParaIndex {
		violations = append(violations, "invalid_paraIndex")
	}

	// Length is measured on the trimmed content, which is also what gets
	// stored; surrounding whitespace never counts against the limit.
	content := strings.TrimSpace(in.Content)
	if content == "" {
		violations = append(violations, "empty_content")
	} else if len(content) > MaxContentLength {
		violations = append(violations, "content_too_long")
	}

	if in.ParentID != "" {
		if len(in.ParentID) > MaxParentIDLength || !safeIDRegex.MatchString(in.ParentID) {
			violations = append(violations, "invalid_parentId")
		}
	}

	if len(in.UserName) > MaxUserNameLength {
		violations = append(violations, "invalid_userName")
	}

	return violations
}
