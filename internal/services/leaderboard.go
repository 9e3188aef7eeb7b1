package services

import (
	"context"
	"fmt"
	"karmafeed/internal/cache"
	"karmafeed/internal/models"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const leaderboardCacheKey = "leaderboard:default"

// LeaderboardEntry 排行榜中的一行
type LeaderboardEntry struct {
	Username string `json:"username"`
	Karma    int64  `json:"karma"`
}

// Leaderboard 基于积分流水计算滑动时间窗内的排行
type Leaderboard struct {
	db       *gorm.DB
	cache    cache.Store
	size     int
	window   time.Duration
	cacheTTL time.Duration
	now      func() time.Time

	// generation 每次 Invalidate 自增；计算期间被失效的快照不会写回缓存
	mu         sync.Mutex
	generation uint64
}

func NewLeaderboard(db *gorm.DB, store cache.Store, size int, window, cacheTTL time.Duration) *Leaderboard {
	return &Leaderboard{
		db:       db,
		cache:    store,
		size:     size,
		window:   window,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Top 返回 [now-window, now] 内积分最高的 n 个用户。
// 按积分降序、用户名升序排列；窗口内积分合计不大于 0 的用户不出现。
func (b *Leaderboard) Top(ctx context.Context, n int, window time.Duration) ([]LeaderboardEntry, error) {
	if n <= 0 {
		return nil, models.NewValidationError("leaderboard size must be positive")
	}
	if window <= 0 {
		return nil, models.NewValidationError("leaderboard window must be positive")
	}

	now := b.now().UTC()
	entries := make([]LeaderboardEntry, 0, n)
	err := b.db.WithContext(ctx).
		Table("karma_events").
		Select("users.username AS username, SUM(karma_events.amount) AS karma").
		Joins("JOIN users ON users.id = karma_events.user_id").
		Where("karma_events.created_at >= ? AND karma_events.created_at <= ?", now.Add(-window), now).
		Group("users.id, users.username").
		Having("SUM(karma_events.amount) > 0").
		Order("karma DESC").
		Order("users.username ASC").
		Limit(n).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate leaderboard: %w", err)
	}
	return entries, nil
}

// Default 使用配置的大小和时间窗，优先读取缓存快照
func (b *Leaderboard) Default(ctx context.Context) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	hit, err := b.cache.Get(ctx, leaderboardCacheKey, &entries)
	if err != nil {
		log.WithError(err).Warn("Failed to read leaderboard snapshot, recomputing")
	}
	if hit {
		return entries, nil
	}
	return b.Refresh(ctx)
}

// Refresh 重新计算默认排行并写入缓存
func (b *Leaderboard) Refresh(ctx context.Context) ([]LeaderboardEntry, error) {
	gen := b.currentGeneration()
	entries, err := b.Top(ctx, b.size, b.window)
	if err != nil {
		return nil, err
	}
	b.storeSnapshot(ctx, gen, entries)
	return entries, nil
}

// Invalidate 丢弃缓存快照，下一次读取会重新计算
func (b *Leaderboard) Invalidate(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.generation++
	if err := b.cache.Delete(ctx, leaderboardCacheKey); err != nil {
		log.WithError(err).Warn("Failed to invalidate leaderboard snapshot")
	}
}

func (b *Leaderboard) currentGeneration() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// storeSnapshot 只在计算开始后没有发生 Invalidate 时写入缓存
func (b *Leaderboard) storeSnapshot(ctx context.Context, gen uint64, entries []LeaderboardEntry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		log.Debug("Leaderboard snapshot went stale during refresh, not caching")
		return false
	}
	if err := b.cache.Set(ctx, leaderboardCacheKey, entries, b.cacheTTL); err != nil {
		log.WithError(err).Warn("Failed to store leaderboard snapshot")
		return false
	}
	return true
}

// Size 默认排行人数
func (b *Leaderboard) Size() int {
	return b.size
}

// Window 默认统计时间窗
func (b *Leaderboard) Window() time.Duration {
	return b.window
}
