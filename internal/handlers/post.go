package handlers

import (
	"karmafeed/internal/middleware"
	"karmafeed/internal/services"
	"karmafeed/internal/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// 单页最多返回的帖子数
const maxPageSize = 100

type PostHandler struct {
	posts *services.PostService
	loc   *time.Location
}

func NewPostHandler(posts *services.PostService, loc *time.Location) *PostHandler {
	return &PostHandler{posts: posts, loc: loc}
}

type createPostRequest struct {
	Text string `json:"text"`
}

// List 最新帖子，按发布时间倒序
func (h *PostHandler) List(c *gin.Context) {
	limit := utils.StringToInt(c.Query("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := utils.StringToInt(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}

	posts, err := h.posts.List(c.Request.Context(), services.ListPostsInput{
		ViewerID: middleware.CurrentUserID(c),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	resp := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, newPostResponse(p, h.loc))
	}
	c.JSON(http.StatusOK, resp)
}

// Create 发布帖子
func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUser(c), req.Text)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPostResponse(*post, h.loc))
}

// Delete 删除帖子（仅作者）
func (h *PostHandler) Delete(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), middleware.CurrentUser(c), postID); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
