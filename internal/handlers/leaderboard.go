package handlers

import (
	"karmafeed/internal/models"
	"karmafeed/internal/services"
	"karmafeed/internal/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// 查询参数允许的上限
const (
	maxLeaderboardSize   = 100
	maxLeaderboardWindow = 30 * 24 * time.Hour
)

type LeaderboardHandler struct {
	board *services.Leaderboard
}

func NewLeaderboardHandler(board *services.Leaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// Top 默认参数走缓存快照；?limit= 和 ?window= 可覆盖默认值，实时计算
func (h *LeaderboardHandler) Top(c *gin.Context) {
	limitRaw, windowRaw := c.Query("limit"), c.Query("window")
	if limitRaw == "" && windowRaw == "" {
		entries, err := h.board.Default(c.Request.Context())
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
		return
	}

	limit := h.board.Size()
	if limitRaw != "" {
		limit = utils.StringToInt(limitRaw)
		if limit <= 0 || limit > maxLeaderboardSize {
			RespondError(c, models.NewValidationError("limit must be between 1 and 100"))
			return
		}
	}

	window := h.board.Window()
	if windowRaw != "" {
		d, err := time.ParseDuration(windowRaw)
		if err != nil || d <= 0 || d > maxLeaderboardWindow {
			RespondError(c, models.NewValidationError("window must be a positive duration of at most 720h"))
			return
		}
		window = d
	}

	entries, err := h.board.Top(c.Request.Context(), limit, window)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
