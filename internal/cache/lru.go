package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lruItem 包装缓存数据和过期时间
type lruItem struct {
	Data      []byte
	ExpiresAt time.Time
}

// LRU 进程内本地缓存
type LRU struct {
	lruCache *lru.Cache[string, lruItem]
	now      func() time.Time
	mu       sync.Mutex
}

// NewLRU 创建容量为 size 的 LRU 缓存
func NewLRU(size int) (*LRU, error) {
	l, err := lru.New[string, lruItem](size)
	if err != nil {
		return nil, fmt.Errorf("create LRU cache: %w", err)
	}
	return &LRU{lruCache: l, now: time.Now}, nil
}

// Set 设置缓存，TTL 为过期时间
func (c *LRU) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lruCache.Add(key, lruItem{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	})
	return nil
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *LRU) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	val, ok := c.lruCache.Get(key)
	if ok && c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(val.Data, dest); err != nil {
		return false, fmt.Errorf("decode cache value %s: %w", key, err)
	}
	return true, nil
}

// Delete 删除指定缓存
func (c *LRU) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lruCache.Remove(key)
	return nil
}

// Ping 进程内缓存始终可用
func (c *LRU) Ping(_ context.Context) error {
	return nil
}

func (c *LRU) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lruCache.Purge()
	return nil
}
