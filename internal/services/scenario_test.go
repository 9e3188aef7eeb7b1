package services

import (
	"context"
	"karmafeed/internal/models"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscussionScenario(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	alice, err := svc.Users.Ensure(ctx, Identity{Email: "alice@x.com"})
	require.NoError(t, err)
	bob, err := svc.Users.Ensure(ctx, Identity{Session: &SessionIdentity{Email: "bob@x.com"}})
	require.NoError(t, err)
	carol, err := svc.Users.Ensure(ctx, Identity{Username: "carol"})
	require.NoError(t, err)

	p1 := mustPost(t, svc, alice, "P1")

	c1 := mustComment(t, svc, bob, p1.ID, nil, "C1")
	total, err := svc.Karma.Total(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, total)

	mustComment(t, svc, carol, p1.ID, &c1.ID, "C2")
	total, err = svc.Karma.Total(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	res, err := svc.Reactions.Toggle(ctx, carol, models.TargetComment, c1.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(1), res.LikeCount)

	res, err = svc.Reactions.Toggle(ctx, carol, models.TargetComment, c1.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, int64(0), res.LikeCount)

	entries, err := svc.Leaderboard.Top(ctx, 5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{{Username: "bob", Karma: 1}}, entries)
}

func TestSeedDemo(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	summary, err := SeedDemo(ctx, svc, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Users)
	assert.Equal(t, 10, summary.Posts)
	assert.Equal(t, 90, summary.Comments)
	assert.False(t, summary.Skipped)

	posts, err := svc.Posts.List(ctx, ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, posts, 10)
	for _, p := range posts {
		assert.Equal(t, int64(9), p.CommentCount)
	}

	// 60 条回复，每条给父评论作者 1 分
	board, err := svc.Leaderboard.Top(ctx, 5, 24*time.Hour)
	require.NoError(t, err)
	var sum int64
	for _, e := range board {
		sum += e.Karma
	}
	assert.Equal(t, int64(60), sum)

	again, err := SeedDemo(ctx, svc, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}
