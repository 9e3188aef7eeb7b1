package handlers

import (
	"karmafeed/internal/middleware"
	"karmafeed/internal/services"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// TotalCommentsHeader 评论总数（包括所有层级的回复）
const TotalCommentsHeader = "X-Total-Comments"

type CommentHandler struct {
	comments *services.CommentService
	loc      *time.Location
}

func NewCommentHandler(comments *services.CommentService, loc *time.Location) *CommentHandler {
	return &CommentHandler{comments: comments, loc: loc}
}

type createCommentRequest struct {
	Text   string `json:"text"`
	Post   uint   `json:"post"`
	Parent *uint  `json:"parent"`
}

// ListForPost 返回帖子的评论树
func (h *CommentHandler) ListForPost(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok {
		return
	}

	forest, err := h.comments.Forest(c.Request.Context(), postID, middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Header(TotalCommentsHeader, strconv.Itoa(forest.Total))
	c.JSON(http.StatusOK, newCommentTreeResponse(forest.Roots, h.loc))
}

// Create 发表评论或回复
func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), middleware.CurrentUser(c), services.CreateCommentInput{
		PostID:   req.Post,
		ParentID: req.Parent,
		Text:     req.Text,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCommentResponse(*comment, h.loc))
}
