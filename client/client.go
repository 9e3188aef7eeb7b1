// Package client 是 karmafeed HTTP API 的类型化客户端。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Identity 随每个请求发送的身份，字段含义与服务端一致
type Identity struct {
	ID       string           `json:"id,omitempty"`
	Email    string           `json:"email,omitempty"`
	Username string           `json:"username,omitempty"`
	Session  *SessionIdentity `json:"user,omitempty"`
}

type SessionIdentity struct {
	Email string `json:"email,omitempty"`
}

type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type Post struct {
	ID               uint      `json:"id"`
	Author           Author    `json:"author"`
	Text             string    `json:"text"`
	TextHTML         string    `json:"text_html"`
	CreatedAt        time.Time `json:"created_at"`
	CreatedAtDisplay string    `json:"created_at_display"`
	LikeCount        int64     `json:"like_count"`
	CommentCount     int64     `json:"comment_count"`
	IsLiked          bool      `json:"is_liked"`
}

type Comment struct {
	ID               uint      `json:"id"`
	Post             uint      `json:"post"`
	Parent           *uint     `json:"parent"`
	Author           Author    `json:"author"`
	Text             string    `json:"text"`
	TextHTML         string    `json:"text_html"`
	CreatedAt        time.Time `json:"created_at"`
	CreatedAtDisplay string    `json:"created_at_display"`
	LikeCount        int64     `json:"like_count"`
	IsLiked          bool      `json:"is_liked"`
	DescendantCount  int       `json:"descendant_count"`
	Replies          []Comment `json:"replies"`
}

type ToggleResult struct {
	Liked     bool  `json:"liked"`
	Delta     int   `json:"delta"`
	LikeCount int64 `json:"like_count"`
}

type LeaderboardEntry struct {
	Username string `json:"username"`
	Karma    int64  `json:"karma"`
}

// Target 可点赞的内容类型
type Target string

const (
	TargetPost    Target = "post"
	TargetComment Target = "comment"
)

// APIError 服务端返回的错误
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("karmafeed: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client API 客户端。baseURL 指向 /api 前缀，例如 http://localhost:8080/api
type Client struct {
	baseURL  string
	http     *http.Client
	identity *Identity
}

type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithIdentity 设置随请求发送的身份
func WithIdentity(id Identity) Option {
	return func(c *Client) { c.identity = &id }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// As 返回使用另一个身份的客户端副本
func (c *Client) As(id Identity) *Client {
	clone := *c
	clone.identity = &id
	return &clone
}

func (c *Client) ListPosts(ctx context.Context, limit, offset int) ([]Post, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/posts/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var posts []Post
	err := c.do(ctx, http.MethodGet, path, nil, &posts)
	return posts, err
}

func (c *Client) CreatePost(ctx context.Context, text string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/posts/", map[string]interface{}{"text": text}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, postID uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d/", postID), map[string]interface{}{}, nil)
}

// Comments 返回帖子的评论树以及评论总数（所有根节点的 DescendantCount 之和）
func (c *Client) Comments(ctx context.Context, postID uint) ([]Comment, int, error) {
	var tree []Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/comments/", postID), nil, &tree); err != nil {
		return nil, 0, err
	}
	total := 0
	for _, root := range tree {
		total += root.DescendantCount
	}
	return tree, total, nil
}

func (c *Client) CreateComment(ctx context.Context, postID uint, parentID *uint, text string) (*Comment, error) {
	body := map[string]interface{}{"text": text, "post": postID, "parent": parentID}
	var comment Comment
	if err := c.do(ctx, http.MethodPost, "/comments/", body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Toggle 翻转当前身份在目标上的点赞状态
func (c *Client) Toggle(ctx context.Context, target Target, id uint) (*ToggleResult, error) {
	var path string
	switch target {
	case TargetPost:
		path = fmt.Sprintf("/posts/%d/like/", id)
	case TargetComment:
		path = fmt.Sprintf("/comments/%d/like/", id)
	default:
		return nil, fmt.Errorf("karmafeed: unknown like target %q", target)
	}

	var result ToggleResult
	if err := c.do(ctx, http.MethodPost, path, map[string]interface{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Leaderboard 使用服务端默认参数
func (c *Client) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := c.do(ctx, http.MethodGet, "/leaderboard/", nil, &entries)
	return entries, err
}

// do 发送请求。写请求把身份放进 JSON body 的 actor 字段，读请求使用 X-Actor 头。
func (c *Client) do(ctx context.Context, method, path string, body map[string]interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		if c.identity != nil {
			body["actor"] = c.identity
		}
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("karmafeed: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("karmafeed: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	} else if c.identity != nil {
		header, err := json.Marshal(c.identity)
		if err != nil {
			return fmt.Errorf("karmafeed: encode identity: %w", err)
		}
		req.Header.Set("X-Actor", string(header))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("karmafeed: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("karmafeed: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("karmafeed: decode response: %w", err)
	}
	return nil
}
