package services

import (
	"context"
	"fmt"
	"karmafeed/internal/metrics"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// 合并短时间内的多次刷新请求
const refreshFlushInterval = 500 * time.Millisecond

// LeaderboardRefresher 在后台维护默认排行榜快照。
// 写入积分后异步调度刷新；cron 定时刷新保证时间窗在没有写入时也会滑动。
type LeaderboardRefresher struct {
	board *Leaderboard
	queue chan struct{}
	cron  *cron.Cron
	spec  string
	done  chan struct{}

	started bool
}

func NewLeaderboardRefresher(board *Leaderboard, spec string) *LeaderboardRefresher {
	return &LeaderboardRefresher{
		board: board,
		queue: make(chan struct{}, 1),
		cron:  cron.New(cron.WithLocation(time.UTC)),
		spec:  spec,
		done:  make(chan struct{}),
	}
}

// Schedule 请求一次异步刷新（非阻塞）。已有待处理请求时直接合并。
func (r *LeaderboardRefresher) Schedule() {
	select {
	case r.queue <- struct{}{}:
	default:
		// 已在队列中，跳过
	}
}

// Start 启动后台 worker 和定时任务，ctx 取消后 worker 退出
func (r *LeaderboardRefresher) Start(ctx context.Context) error {
	if r.spec != "" {
		if _, err := r.cron.AddFunc(r.spec, func() {
			r.refresh(ctx, "cron")
		}); err != nil {
			return fmt.Errorf("schedule leaderboard refresh %q: %w", r.spec, err)
		}
		r.cron.Start()
	}

	r.started = true
	go r.worker(ctx)
	log.WithField("spec", r.spec).Info("Leaderboard refresher started")
	return nil
}

// Stop 等待定时任务和 worker 结束；调用前应先取消 Start 的 ctx
func (r *LeaderboardRefresher) Stop() {
	if !r.started {
		return
	}
	<-r.cron.Stop().Done()
	<-r.done
	log.Info("Leaderboard refresher stopped")
}

func (r *LeaderboardRefresher) worker(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(refreshFlushInterval)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.queue:
			pending = true
		case <-ticker.C:
			if pending {
				r.refresh(ctx, "write")
				pending = false
			}
		}
	}
}

func (r *LeaderboardRefresher) refresh(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.board.Refresh(ctx); err != nil {
		metrics.LeaderboardRefreshes.WithLabelValues(trigger, "error").Inc()
		log.WithError(err).WithField("trigger", trigger).Error("Leaderboard refresh failed")
		return
	}
	metrics.LeaderboardRefreshes.WithLabelValues(trigger, "ok").Inc()
}
