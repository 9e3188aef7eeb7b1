package handlers

import (
	"karmafeed/internal/middleware"
	"karmafeed/internal/models"
	"karmafeed/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	reactions *services.ReactionService
}

func NewLikeHandler(reactions *services.ReactionService) *LikeHandler {
	return &LikeHandler{reactions: reactions}
}

// TogglePost 点赞/取消点赞帖子
func (h *LikeHandler) TogglePost(c *gin.Context) {
	h.toggle(c, models.TargetPost)
}

// ToggleComment 点赞/取消点赞评论
func (h *LikeHandler) ToggleComment(c *gin.Context) {
	h.toggle(c, models.TargetComment)
}

// toggle 点赞返回 201，取消点赞返回 200；点赞数始终由 like 表统计
func (h *LikeHandler) toggle(c *gin.Context, target models.TargetType) {
	id, ok := paramID(c, "id", string(target))
	if !ok {
		return
	}

	result, err := h.reactions.Toggle(c.Request.Context(), middleware.CurrentUser(c), target, id)
	if err != nil {
		RespondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Liked {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}
