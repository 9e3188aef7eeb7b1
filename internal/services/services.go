package services

import (
	"karmafeed/internal/cache"
	"karmafeed/internal/config"

	"gorm.io/gorm"
)

// Services 汇总全部领域服务，由 main 和测试统一构建
type Services struct {
	Users       *UserService
	Posts       *PostService
	Comments    *CommentService
	Reactions   *ReactionService
	Karma       *KarmaLedger
	Leaderboard *Leaderboard
	Refresher   *LeaderboardRefresher

	// Cache 供健康检查和进程退出时关闭使用
	Cache cache.Store
}

func New(db *gorm.DB, store cache.Store, cfg *config.Config) *Services {
	ledger := NewKarmaLedger(db)
	board := NewLeaderboard(db, store, cfg.LeaderboardSize, cfg.LeaderboardWindow, cfg.LeaderboardCacheTTL)
	refresher := NewLeaderboardRefresher(board, cfg.LeaderboardRefreshSpec)

	return &Services{
		Users:       NewUserService(db),
		Posts:       NewPostService(db, cfg.MaxTextLength),
		Comments:    NewCommentService(db, ledger, board, refresher, cfg.MaxTextLength),
		Reactions:   NewReactionService(db),
		Karma:       ledger,
		Leaderboard: board,
		Refresher:   refresher,
		Cache:       store,
	}
}
