package services

import (
	"context"
	"errors"
	"fmt"
	"karmafeed/internal/models"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PostService 负责帖子的创建、列表和删除
type PostService struct {
	db            *gorm.DB
	maxTextLength int
}

func NewPostService(db *gorm.DB, maxTextLength int) *PostService {
	return &PostService{db: db, maxTextLength: maxTextLength}
}

// ListPostsInput 列表参数。Limit 为 0 时返回全部帖子。
type ListPostsInput struct {
	ViewerID uint
	Limit    int
	Offset   int
}

// Create 创建帖子，作者为已解析的当前用户
func (s *PostService) Create(ctx context.Context, author *models.User, text string) (*models.Post, error) {
	if author == nil {
		return nil, models.NewAuthenticationError("an identity is required to post")
	}
	text, err := normalizeText(text, s.maxTextLength)
	if err != nil {
		return nil, err
	}

	post := models.Post{UserID: author.ID, Text: text}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.User = *author

	log.WithFields(log.Fields{"post_id": post.ID, "author": author.Username}).Info("Post created")
	return &post, nil
}

// List 按创建时间倒序返回帖子，每次都重新读取存储
func (s *PostService) List(ctx context.Context, in ListPostsInput) ([]models.Post, error) {
	query := s.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC")
	if in.Limit > 0 {
		query = query.Limit(in.Limit)
	}
	if in.Offset > 0 {
		query = query.Offset(in.Offset)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if err := s.fillPostStats(s.db.WithContext(ctx), posts, in.ViewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

// Get 返回单个帖子及其统计字段
func (s *PostService) Get(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("User").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("post", postID)
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", postID, err)
	}

	posts := []models.Post{post}
	if err := s.fillPostStats(s.db.WithContext(ctx), posts, viewerID); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// Delete 只有作者本人可以删除帖子。
// 帖子下的评论以及帖子和评论上的点赞一并删除；积分流水作为审计记录保留。
func (s *PostService) Delete(ctx context.Context, actor *models.User, postID uint) error {
	if actor == nil {
		return models.NewAuthenticationError("an identity is required to delete a post")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.Preload("User").First(&post, postID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("post", postID)
		}
		if err != nil {
			return fmt.Errorf("load post %d: %w", postID, err)
		}

		if post.User.Username != actor.Username {
			return models.NewAuthorizationError("only the author can delete this post")
		}

		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &commentIDs).Error; err != nil {
			return fmt.Errorf("collect comments of post %d: %w", postID, err)
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("target_type = ? AND target_id IN ?", models.TargetComment, commentIDs).
				Delete(&models.Like{}).Error; err != nil {
				return fmt.Errorf("delete comment likes: %w", err)
			}
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetPost, postID).
			Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("delete post likes: %w", err)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Delete(&models.Post{}, postID).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"post_id": postID, "actor": actor.Username}).Info("Post deleted")
	return nil
}

// fillPostStats 批量填充点赞数、评论数和当前用户的点赞状态
func (s *PostService) fillPostStats(tx *gorm.DB, posts []models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likes, err := loadLikeStats(tx, models.TargetPost, ids, viewerID)
	if err != nil {
		return err
	}

	type countResult struct {
		PostID uint
		Count  int64
	}
	var counts []countResult
	if err := tx.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&counts).Error; err != nil {
		return fmt.Errorf("count comments: %w", err)
	}
	commentCounts := make(map[uint]int64, len(counts))
	for _, c := range counts {
		commentCounts[c.PostID] = c.Count
	}

	for i := range posts {
		posts[i].LikeCount = likes.counts[posts[i].ID]
		posts[i].IsLiked = likes.liked[posts[i].ID]
		posts[i].CommentCount = commentCounts[posts[i].ID]
	}
	return nil
}

// normalizeText 去除首尾空白并校验长度
func normalizeText(text string, maxLength int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewValidationError("text is required")
	}
	if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
		return "", models.NewValidationError(fmt.Sprintf("text must be at most %d characters", maxLength))
	}
	return text, nil
}
