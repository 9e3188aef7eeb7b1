package handlers

import (
	"karmafeed/internal/models"
	"karmafeed/internal/services"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// 积分明细最多返回的条数
const karmaHistoryLimit = 50

type UserHandler struct {
	users  *services.UserService
	karma  *services.KarmaLedger
	window time.Duration
}

func NewUserHandler(users *services.UserService, karma *services.KarmaLedger, window time.Duration) *UserHandler {
	return &UserHandler{users: users, karma: karma, window: window}
}

type KarmaResponse struct {
	Username    string              `json:"username"`
	TotalKarma  int64               `json:"total_karma"`
	WindowKarma int64               `json:"window_karma"`
	Events      []models.KarmaEvent `json:"events"`
}

// Karma - 积分明细
func (h *UserHandler) Karma(c *gin.Context) {
	ctx := c.Request.Context()
	username := c.Param("username")

	user, err := h.users.FindByUsername(ctx, username)
	if err != nil {
		RespondError(c, err)
		return
	}
	if user == nil {
		RespondError(c, models.NewNotFoundError("user", username))
		return
	}

	total, err := h.karma.Total(ctx, user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	windowed, err := h.karma.WindowTotal(ctx, user.ID, h.window)
	if err != nil {
		RespondError(c, err)
		return
	}
	events, err := h.karma.History(ctx, user.ID, karmaHistoryLimit)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, KarmaResponse{
		Username:    user.Username,
		TotalKarma:  total,
		WindowKarma: windowed,
		Events:      events,
	})
}
