package services

import (
	"context"
	"karmafeed/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creditAt(t *testing.T, svc *Services, user *models.User, amount int, at time.Time) {
	t.Helper()
	svc.Karma.now = func() time.Time { return at }
	_, err := svc.Karma.Credit(context.Background(), user.ID, amount, models.KarmaCauseCommentReply, nil)
	require.NoError(t, err)
}

func TestLeaderboardTop(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	alice := mustUser(t, svc, "alice")
	bob := mustUser(t, svc, "bob")
	carol := mustUser(t, svc, "carol")
	mustUser(t, svc, "dave") // 没有任何积分

	creditAt(t, svc, bob, 1, now.Add(-time.Hour))
	creditAt(t, svc, bob, 1, now.Add(-2*time.Hour))
	creditAt(t, svc, carol, 1, now.Add(-3*time.Hour))
	creditAt(t, svc, alice, 1, now.Add(-4*time.Hour))
	creditAt(t, svc, alice, 5, now.Add(-25*time.Hour)) // 窗口之外
	fixedClock(svc, now)

	entries, err := svc.Leaderboard.Top(ctx, 5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{
		{Username: "bob", Karma: 2},
		{Username: "alice", Karma: 1},
		{Username: "carol", Karma: 1},
	}, entries)

	top1, err := svc.Leaderboard.Top(ctx, 1, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{{Username: "bob", Karma: 2}}, top1)

	wide, err := svc.Leaderboard.Top(ctx, 5, 48*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, wide)
	assert.Equal(t, LeaderboardEntry{Username: "alice", Karma: 6}, wide[0])
}

func TestLeaderboardWindowBoundaries(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	bob := mustUser(t, svc, "bob")

	creditAt(t, svc, bob, 1, now.Add(-24*time.Hour))
	creditAt(t, svc, bob, 1, now)
	creditAt(t, svc, bob, 1, now.Add(time.Minute)) // 未来的记录不计入
	fixedClock(svc, now)

	entries, err := svc.Leaderboard.Top(ctx, 5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{{Username: "bob", Karma: 2}}, entries)
}

func TestLeaderboardRejectsBadParameters(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	_, err := svc.Leaderboard.Top(ctx, 0, time.Hour)
	assert.True(t, models.IsCode(err, models.ErrValidation))

	_, err = svc.Leaderboard.Top(ctx, 5, 0)
	assert.True(t, models.IsCode(err, models.ErrValidation))

	entries, err := svc.Leaderboard.Top(ctx, 5, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLeaderboardSnapshotInvalidatedByReply(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svc, "alice")
	bob := mustUser(t, svc, "bob")
	post := mustPost(t, svc, alice, "P")

	entries, err := svc.Leaderboard.Default(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	root := mustComment(t, svc, bob, post.ID, nil, "root")
	mustComment(t, svc, alice, post.ID, &root.ID, "reply")

	entries, err = svc.Leaderboard.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{{Username: "bob", Karma: 1}}, entries)
}

func TestLeaderboardRefresherWarmsSnapshot(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	bob := mustUser(t, svc, "bob")

	require.NoError(t, svc.Refresher.Start(ctx))
	t.Cleanup(func() {
		cancel()
		svc.Refresher.Stop()
	})

	_, err := svc.Karma.Credit(ctx, bob.ID, 1, models.KarmaCauseCommentReply, nil)
	require.NoError(t, err)
	svc.Refresher.Schedule()
	svc.Refresher.Schedule()

	assert.Eventually(t, func() bool {
		var cached []LeaderboardEntry
		hit, err := svc.Leaderboard.cache.Get(ctx, leaderboardCacheKey, &cached)
		return err == nil && hit && len(cached) == 1 && cached[0].Username == "bob"
	}, 3*time.Second, 50*time.Millisecond)
}

func TestLeaderboardRefresherRejectsBadSpec(t *testing.T) {
	svc, _ := setupTestServices(t)
	refresher := NewLeaderboardRefresher(svc.Leaderboard, "not a cron spec")
	assert.Error(t, refresher.Start(context.Background()))
	refresher.Stop()
}

func TestLeaderboardHidesNonPositiveKarma(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	bob := mustUser(t, svc, "bob")
	dave := mustUser(t, svc, "dave")
	erin := mustUser(t, svc, "erin")

	creditAt(t, svc, dave, 0, now.Add(-time.Hour))
	creditAt(t, svc, erin, 1, now.Add(-2*time.Hour))
	creditAt(t, svc, erin, -1, now.Add(-time.Hour))
	fixedClock(svc, now)

	entries, err := svc.Leaderboard.Top(ctx, 5, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, entries)

	creditAt(t, svc, bob, 1, now.Add(-time.Minute))
	fixedClock(svc, now)

	entries, err = svc.Leaderboard.Top(ctx, 5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{{Username: "bob", Karma: 1}}, entries)
}

func TestLeaderboardDropsSnapshotInvalidatedMidRefresh(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()
	board := svc.Leaderboard
	bob := mustUser(t, svc, "bob")

	// 快照计算完成之前有新的积分写入并触发失效
	gen := board.currentGeneration()
	stale, err := board.Top(ctx, board.Size(), board.Window())
	require.NoError(t, err)
	assert.Empty(t, stale)

	_, err = svc.Karma.Credit(ctx, bob.ID, 1, models.KarmaCauseCommentReply, nil)
	require.NoError(t, err)
	board.Invalidate(ctx)

	assert.False(t, board.storeSnapshot(ctx, gen, stale))

	entries, err := board.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{{Username: "bob", Karma: 1}}, entries)

	var cached []LeaderboardEntry
	hit, err := board.cache.Get(ctx, leaderboardCacheKey, &cached)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, entries, cached)
}
