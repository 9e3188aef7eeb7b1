// Package cache 为可重算的读模型（如排行榜快照）提供带 TTL 的缓存。
// 缓存值以 JSON 编码存储，进程内 LRU 和 Redis 的行为保持一致。
package cache

import (
	"context"
	"karmafeed/internal/config"
	"time"

	log "github.com/sirupsen/logrus"
)

// Store 是缓存后端的最小接口
type Store interface {
	// Get 将命中的值解码进 dest；未命中或已过期时返回 false
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Ping 检查后端是否可用，供健康检查使用
	Ping(ctx context.Context) error
	Close() error
}

// New 根据配置选择后端：设置了 REDIS_URL 时使用 Redis，否则使用进程内 LRU
func New(cfg *config.Config) (Store, error) {
	if cfg.RedisURL != "" {
		store, err := NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Info("Using Redis cache")
		return store, nil
	}
	log.WithField("size", cfg.CacheSize).Info("Using in-process LRU cache")
	return NewLRU(cfg.CacheSize)
}
