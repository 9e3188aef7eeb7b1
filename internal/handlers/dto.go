package handlers

import (
	"karmafeed/internal/models"
	"karmafeed/internal/services"
	"karmafeed/internal/utils"
	"time"
)

type AuthorResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type PostResponse struct {
	ID               uint           `json:"id"`
	Author           AuthorResponse `json:"author"`
	Text             string         `json:"text"`
	TextHTML         string         `json:"text_html"`
	CreatedAt        time.Time      `json:"created_at"`
	CreatedAtDisplay string         `json:"created_at_display"`
	LikeCount        int64          `json:"like_count"`
	CommentCount     int64          `json:"comment_count"`
	IsLiked          bool           `json:"is_liked"`
}

type CommentResponse struct {
	ID               uint              `json:"id"`
	Post             uint              `json:"post"`
	Parent           *uint             `json:"parent"`
	Author           AuthorResponse    `json:"author"`
	Text             string            `json:"text"`
	TextHTML         string            `json:"text_html"`
	CreatedAt        time.Time         `json:"created_at"`
	CreatedAtDisplay string            `json:"created_at_display"`
	LikeCount        int64             `json:"like_count"`
	IsLiked          bool              `json:"is_liked"`
	DescendantCount  int               `json:"descendant_count"`
	Replies          []CommentResponse `json:"replies"`
}

func newAuthorResponse(u models.User) AuthorResponse {
	return AuthorResponse{ID: u.ID, Username: u.Username}
}

func newPostResponse(p models.Post, loc *time.Location) PostResponse {
	return PostResponse{
		ID:               p.ID,
		Author:           newAuthorResponse(p.User),
		Text:             p.Text,
		TextHTML:         utils.RenderMarkdown(p.Text),
		CreatedAt:        p.CreatedAt.UTC(),
		CreatedAtDisplay: utils.FormatDisplayTime(p.CreatedAt, loc),
		LikeCount:        p.LikeCount,
		CommentCount:     p.CommentCount,
		IsLiked:          p.IsLiked,
	}
}

func newCommentResponse(c models.Comment, loc *time.Location) CommentResponse {
	return CommentResponse{
		ID:               c.ID,
		Post:             c.PostID,
		Parent:           c.ParentID,
		Author:           newAuthorResponse(c.User),
		Text:             c.Text,
		TextHTML:         utils.RenderMarkdown(c.Text),
		CreatedAt:        c.CreatedAt.UTC(),
		CreatedAtDisplay: utils.FormatDisplayTime(c.CreatedAt, loc),
		LikeCount:        c.LikeCount,
		IsLiked:          c.IsLiked,
		DescendantCount:  1,
		Replies:          []CommentResponse{},
	}
}

func newCommentTreeResponse(nodes []*services.CommentNode, loc *time.Location) []CommentResponse {
	out := make([]CommentResponse, 0, len(nodes))
	for _, n := range nodes {
		resp := newCommentResponse(n.Comment, loc)
		resp.DescendantCount = n.DescendantCount
		resp.Replies = newCommentTreeResponse(n.Replies, loc)
		out = append(out, resp)
	}
	return out
}
