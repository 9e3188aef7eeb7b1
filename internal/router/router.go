package router

import (
	"karmafeed/internal/config"
	"karmafeed/internal/handlers"
	"karmafeed/internal/middleware"
	"karmafeed/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// New 构建带全局中间件和全部路由的 gin 引擎
func New(cfg *config.Config, conn *gorm.DB, svc *services.Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())

	RegisterRoutes(r, cfg, conn, svc)
	return r
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, conn *gorm.DB, svc *services.Services) {
	loc := cfg.Location()

	// Handlers
	postHandler := handlers.NewPostHandler(svc.Posts, loc)
	commentHandler := handlers.NewCommentHandler(svc.Comments, loc)
	likeHandler := handlers.NewLikeHandler(svc.Reactions)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.Leaderboard)
	userHandler := handlers.NewUserHandler(svc.Users, svc.Karma, cfg.LeaderboardWindow)

	// 运维路由 (Operational Routes)
	r.GET("/healthz", handlers.Health(conn, svc.Cache))
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.LoadActor(svc.Users))

	// 公共路由 (Public Routes)
	api.GET("/posts/", postHandler.List)                        // 最新帖子
	api.GET("/posts/:id/comments/", commentHandler.ListForPost) // 帖子评论树
	api.GET("/leaderboard/", leaderboardHandler.Top)            // 积分排行榜
	api.GET("/users/:username/karma/", userHandler.Karma)       // 用户积分明细

	// 受保护路由 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts/", postHandler.Create)                    // 发布帖子
		authorized.DELETE("/posts/:id/", postHandler.Delete)              // 删除帖子
		authorized.POST("/posts/:id/like/", likeHandler.TogglePost)       // 点赞/取消点赞帖子
		authorized.POST("/comments/", commentHandler.Create)              // 发表评论
		authorized.POST("/comments/:id/like/", likeHandler.ToggleComment) // 点赞/取消点赞评论
	}
}
