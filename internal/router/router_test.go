package router

import (
	"bytes"
	"encoding/json"
	"karmafeed/internal/cache"
	"karmafeed/internal/handlers"
	"karmafeed/internal/services"
	"karmafeed/internal/testutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log.SetLevel(log.ErrorLevel)

	conn := testutil.NewDB(t)
	store, err := cache.NewLRU(100)
	require.NoError(t, err)
	cfg := testutil.TestConfig()

	return New(cfg, conn, services.New(conn, store, cfg))
}

type actor map[string]interface{}

func email(addr string) actor { return actor{"email": addr} }

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, viewer actor) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if viewer != nil {
		data, err := json.Marshal(viewer)
		require.NoError(t, err)
		req.Header.Set("X-Actor", string(data))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createPost(t *testing.T, r *gin.Engine, who actor, text string) handlers.PostResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/posts/", gin.H{"text": text, "actor": who}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[handlers.PostResponse](t, w)
}

func createComment(t *testing.T, r *gin.Engine, who actor, postID uint, parent *uint, text string) handlers.CommentResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/comments/", gin.H{"text": text, "post": postID, "parent": parent, "actor": who}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[handlers.CommentResponse](t, w)
}

func TestCreatePost(t *testing.T) {
	r := setupTestRouter(t)

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{"email identity", gin.H{"text": "**hello**", "actor": email("alice@x.com")}, http.StatusCreated, ""},
		{"legacy user field", gin.H{"text": "hi", "user": gin.H{"user": gin.H{"email": "bob@x.com"}}}, http.StatusCreated, ""},
		{"no identity", gin.H{"text": "hi"}, http.StatusUnauthorized, "AUTHENTICATION_ERROR"},
		{"unresolvable identity", gin.H{"text": "hi", "actor": gin.H{"id": "123"}}, http.StatusUnauthorized, "AUTHENTICATION_ERROR"},
		{"blank text", gin.H{"text": "   ", "actor": email("alice@x.com")}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/posts/", tt.body, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				resp := decode[map[string]string](t, w)
				assert.Equal(t, tt.code, resp["code"])
			}
		})
	}

	w := doJSON(t, r, http.MethodGet, "/api/posts/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode[[]handlers.PostResponse](t, w)
	require.Len(t, posts, 2)
	assert.Equal(t, "bob", posts[0].Author.Username)
	assert.Equal(t, "alice", posts[1].Author.Username)
	assert.Equal(t, "**hello**", posts[1].Text)
	assert.Contains(t, posts[1].TextHTML, "<strong>hello</strong>")
	assert.NotEmpty(t, posts[1].CreatedAtDisplay)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLikeToggleEndpoints(t *testing.T) {
	r := setupTestRouter(t)
	alice, carol := email("alice@x.com"), email("carol@x.com")
	post := createPost(t, r, alice, "P1")
	comment := createComment(t, r, alice, post.ID, nil, "C1")

	paths := map[string]string{
		"post":    "/api/posts/" + itoa(post.ID) + "/like/",
		"comment": "/api/comments/" + itoa(comment.ID) + "/like/",
	}
	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, path, gin.H{"actor": carol}, nil)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			res := decode[services.ToggleResult](t, w)
			assert.True(t, res.Liked)
			assert.Equal(t, int64(1), res.LikeCount)

			w = doJSON(t, r, http.MethodPost, path, gin.H{"actor": carol}, nil)
			require.Equal(t, http.StatusOK, w.Code)
			res = decode[services.ToggleResult](t, w)
			assert.False(t, res.Liked)
			assert.Equal(t, int64(0), res.LikeCount)
		})
	}

	w := doJSON(t, r, http.MethodPost, "/api/posts/"+itoa(post.ID)+"/like/", gin.H{"actor": carol}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/posts/", nil, carol)
	posts := decode[[]handlers.PostResponse](t, w)
	require.Len(t, posts, 1)
	assert.True(t, posts[0].IsLiked)
	assert.Equal(t, int64(1), posts[0].LikeCount)

	w = doJSON(t, r, http.MethodGet, "/api/posts/", nil, nil)
	posts = decode[[]handlers.PostResponse](t, w)
	assert.False(t, posts[0].IsLiked)

	w = doJSON(t, r, http.MethodPost, "/api/posts/999/like/", gin.H{"actor": carol}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/posts/abc/like/", gin.H{"actor": carol}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/posts/"+itoa(post.ID)+"/like/", gin.H{}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommentTreeEndpoint(t *testing.T) {
	r := setupTestRouter(t)
	alice, bob, carol := email("alice@x.com"), email("bob@x.com"), email("carol@x.com")
	post := createPost(t, r, alice, "P1")

	c1 := createComment(t, r, bob, post.ID, nil, "C1")
	assert.Nil(t, c1.Parent)
	c2 := createComment(t, r, carol, post.ID, &c1.ID, "C2")
	require.NotNil(t, c2.Parent)
	createComment(t, r, alice, post.ID, &c2.ID, "C3")
	createComment(t, r, carol, post.ID, nil, "C4")

	w := doJSON(t, r, http.MethodGet, "/api/posts/"+itoa(post.ID)+"/comments/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4", w.Header().Get("X-Total-Comments"))

	tree := decode[[]handlers.CommentResponse](t, w)
	require.Len(t, tree, 2)
	assert.Equal(t, c1.ID, tree[0].ID)
	assert.Equal(t, 3, tree[0].DescendantCount)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, c2.ID, tree[0].Replies[0].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Empty(t, tree[1].Replies)

	missing := uint(9999)
	tests := []struct {
		name   string
		body   gin.H
		status int
	}{
		{"missing post", gin.H{"text": "x", "post": 9999, "actor": bob}, http.StatusNotFound},
		{"missing parent", gin.H{"text": "x", "post": post.ID, "parent": missing, "actor": bob}, http.StatusNotFound},
		{"empty text", gin.H{"text": "", "post": post.ID, "actor": bob}, http.StatusBadRequest},
		{"no identity", gin.H{"text": "x", "post": post.ID}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/comments/", tt.body, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w = doJSON(t, r, http.MethodGet, "/api/posts/9999/comments/", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePostEndpoint(t *testing.T) {
	r := setupTestRouter(t)
	alice := email("alice@x.com")
	post := createPost(t, r, alice, "mine")
	path := "/api/posts/" + itoa(post.ID) + "/"

	w := doJSON(t, r, http.MethodDelete, path, gin.H{"actor": email("mallory@x.com")}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/posts/", nil, nil)
	assert.Len(t, decode[[]handlers.PostResponse](t, w), 1)

	// 用户名相同即视为作者，不论身份来源
	w = doJSON(t, r, http.MethodDelete, path, gin.H{"actor": gin.H{"username": "alice"}}, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, path, gin.H{"actor": alice}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaderboardAndKarmaEndpoints(t *testing.T) {
	r := setupTestRouter(t)
	alice, bob, carol := email("alice@x.com"), email("bob@x.com"), email("carol@x.com")
	post := createPost(t, r, alice, "P1")
	c1 := createComment(t, r, bob, post.ID, nil, "C1")

	w := doJSON(t, r, http.MethodGet, "/api/leaderboard/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]services.LeaderboardEntry](t, w))

	createComment(t, r, carol, post.ID, &c1.ID, "C2")

	w = doJSON(t, r, http.MethodGet, "/api/leaderboard/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []services.LeaderboardEntry{{Username: "bob", Karma: 1}}, decode[[]services.LeaderboardEntry](t, w))

	w = doJSON(t, r, http.MethodGet, "/api/leaderboard/?limit=1&window=1h", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.LeaderboardEntry](t, w), 1)

	for _, query := range []string{"?limit=0", "?limit=500", "?window=-1h", "?window=soon"} {
		w = doJSON(t, r, http.MethodGet, "/api/leaderboard/"+query, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	w = doJSON(t, r, http.MethodGet, "/api/users/bob/karma/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	karma := decode[handlers.KarmaResponse](t, w)
	assert.Equal(t, int64(1), karma.TotalKarma)
	assert.Equal(t, int64(1), karma.WindowKarma)
	require.Len(t, karma.Events, 1)
	assert.Equal(t, "comment_reply", karma.Events[0].Cause)

	w = doJSON(t, r, http.MethodGet, "/api/users/nobody/karma/", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "karmafeed_http_request_duration_seconds")
}

func TestReadsDoNotCreateUsers(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/posts/", nil, email("lurker@x.com"))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/users/lurker/karma/", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthReportsCacheOutage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log.SetLevel(log.ErrorLevel)

	s := miniredis.RunT(t)
	store, err := cache.NewRedis("redis://" + s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	conn := testutil.NewDB(t)
	cfg := testutil.TestConfig()
	r := New(cfg, conn, services.New(conn, store, cfg))

	w := doJSON(t, r, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.Close()
	w = doJSON(t, r, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"component":"cache"`)
}
