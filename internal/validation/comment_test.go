package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func validInput() CommentInput {
	return CommentInput{
		SiteID:    "site-1",
		WorkID:    "work_1",
		ChapterID: "ch.1",
		ParaIndex: intPtr(3),
		Content:   "a fine observation",
		UserName:  "reader",
	}
}

func TestIsValidID(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidID("abc-DEF_123.x"))
	assert.False(t, IsValidID(""))
	assert.False(t, IsValidID("has space"))
	assert.False(t, IsValidID("slash/attack"))
	assert.False(t, IsValidID("back\\slash"))
	assert.False(t, IsValidID("dot..dot"))
	assert.False(t, IsValidID(strings.Repeat("a", MaxIDLength+1)))
	assert.True(t, IsValidID(strings.Repeat("a", MaxIDLength)))
}

func TestValidateCommentInput_Valid(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ValidateCommentInput(validInput()))
}

func TestValidateCommentInput_CollectsAllViolations(t *testing.T) {
	t.Parallel()

	in := CommentInput{
		SiteID:    "bad site",
		WorkID:    "",
		ChapterID: "../etc",
		ParaIndex: nil,
		Content:   "   ",
		ParentID:  strings.Repeat("p", MaxParentIDLength+1),
		UserName:  strings.Repeat("n", MaxUserNameLength+1),
	}

	got := ValidateCommentInput(in)
	assert.ElementsMatch(t, []string{
		"invalid_siteId",
		"invalid_workId",
		"invalid_chapterId",
		"invalid_paraIndex",
		"empty_content",
		"invalid_parentId",
		"invalid_userName",
	}, got)
}

func TestValidateCommentInput_ParaIndexBounds(t *testing.T) {
	t.Parallel()

	in := validInput()
	in.ParaIndex = intPtr(0)
	assert.Empty(t, ValidateCommentInput(in))

	in.ParaIndex = intPtr(MaxParaIndex)
	assert.Empty(t, ValidateCommentInput(in))

	in.ParaIndex = intPtr(-1)
	assert.Equal(t, []string{"invalid_paraIndex"}, ValidateCommentInput(in))

	in.ParaIndex = intPtr(MaxParaIndex + 1)
	assert.Equal(t, []string{"invalid_paraIndex"}, ValidateCommentInput(in))
}

func TestValidateCommentInput_ContentTooLong(t *testing.T) {
	t.Parallel()

	in := validInput()
	in.Content = strings.Repeat("x", MaxContentLength+1)
	assert.Equal(t, []string{"content_too_long"}, ValidateCommentInput(in))

	in.Content = strings.Repeat("x", MaxContentLength)
	assert.Empty(t, ValidateCommentInput(in))

	// Surrounding whitespace does not count toward the limit.
	in.Content = "  " + strings.Repeat("x", MaxContentLength) + "  "
	assert.Empty(t, ValidateCommentInput(in))
}

func TestValidateCommentInput_OptionalFields(t *testing.T) {
	t.Parallel()

	in := validInput()
	in.ParentID = ""
	in.UserName = ""
	assert.Empty(t, ValidateCommentInput(in))

	in.ParentID = "parent space"
	assert.Equal(t, []string{"invalid_parentId"}, ValidateCommentInput(in))
}
