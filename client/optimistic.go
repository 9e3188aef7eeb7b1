package client

import (
	"context"
	"sync"
)

// LikeState 客户端本地维护的点赞状态
type LikeState struct {
	Liked bool
	Count int64
}

// PendingToggle 一次尚未得到服务端确认的乐观切换
type PendingToggle struct {
	state    *LikeState
	previous LikeState
	mu       *sync.Mutex
	settled  bool
}

// LikeTracker 对一个目标上的点赞状态做两阶段更新：
// Begin 立即应用暂定结果，Confirm 用服务端权威结果对齐，Rollback 恢复切换前的状态。
type LikeTracker struct {
	mu    sync.Mutex
	state LikeState
}

func NewLikeTracker(initial LikeState) *LikeTracker {
	return &LikeTracker{state: initial}
}

// State 当前（可能是暂定的）状态
func (t *LikeTracker) State() LikeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Begin 暂定地翻转状态
func (t *LikeTracker) Begin() *PendingToggle {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := &PendingToggle{state: &t.state, previous: t.state, mu: &t.mu}
	if t.state.Liked {
		t.state.Liked = false
		if t.state.Count > 0 {
			t.state.Count--
		}
	} else {
		t.state.Liked = true
		t.state.Count++
	}
	return p
}

// Confirm 用服务端返回的结果覆盖暂定状态
func (p *PendingToggle) Confirm(result ToggleResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settled {
		return
	}
	p.settled = true
	*p.state = LikeState{Liked: result.Liked, Count: result.LikeCount}
}

// Rollback 恢复到切换之前的状态
func (p *PendingToggle) Rollback() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settled {
		return
	}
	p.settled = true
	*p.state = p.previous
}

// ToggleLike 执行完整的乐观切换：先暂定，请求成功则确认，失败则回滚
func (c *Client) ToggleLike(ctx context.Context, tracker *LikeTracker, target Target, id uint) (*ToggleResult, error) {
	pending := tracker.Begin()
	result, err := c.Toggle(ctx, target, id)
	if err != nil {
		pending.Rollback()
		return nil, err
	}
	pending.Confirm(*result)
	return result, nil
}
