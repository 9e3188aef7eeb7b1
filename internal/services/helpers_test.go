package services

import (
	"context"
	"karmafeed/internal/cache"
	"karmafeed/internal/models"
	"karmafeed/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()

	conn := testutil.NewDB(t)
	store, err := cache.NewLRU(100)
	require.NoError(t, err)

	return New(conn, store, testutil.TestConfig()), conn
}

func mustUser(t *testing.T, svc *Services, username string) *models.User {
	t.Helper()
	user, err := svc.Users.Ensure(context.Background(), Identity{Username: username})
	require.NoError(t, err)
	return user
}

func mustPost(t *testing.T, svc *Services, author *models.User, text string) *models.Post {
	t.Helper()
	post, err := svc.Posts.Create(context.Background(), author, text)
	require.NoError(t, err)
	return post
}

func mustComment(t *testing.T, svc *Services, author *models.User, postID uint, parentID *uint, text string) *models.Comment {
	t.Helper()
	comment, err := svc.Comments.Create(context.Background(), author, CreateCommentInput{
		PostID:   postID,
		ParentID: parentID,
		Text:     text,
	})
	require.NoError(t, err)
	return comment
}

// fixedClock 让积分和排行榜使用同一个可控时间
func fixedClock(svc *Services, now time.Time) {
	clock := func() time.Time { return now }
	svc.Karma.now = clock
	svc.Leaderboard.now = clock
}
