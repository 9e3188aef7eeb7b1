package handlers

import (
	"context"
	"karmafeed/internal/cache"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Health 检查数据库和缓存后端的连通性
func Health(conn *gorm.DB, store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := conn.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			log.WithError(err).Warn("Health check failed: database")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "database"})
			return
		}
		if err := store.Ping(ctx); err != nil {
			log.WithError(err).Warn("Health check failed: cache")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "cache"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
