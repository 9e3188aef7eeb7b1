package services

import (
	"context"
	"errors"
	"fmt"
	"karmafeed/internal/metrics"
	"karmafeed/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateCommentInput 创建评论的参数；ParentID 为空表示顶层评论
type CreateCommentInput struct {
	PostID   uint
	ParentID *uint
	Text     string
}

// CommentService 负责评论的创建和树形读取，并触发回复积分
type CommentService struct {
	db            *gorm.DB
	ledger        *KarmaLedger
	board         *Leaderboard
	refresher     *LeaderboardRefresher
	maxTextLength int
}

func NewCommentService(db *gorm.DB, ledger *KarmaLedger, board *Leaderboard, refresher *LeaderboardRefresher, maxTextLength int) *CommentService {
	return &CommentService{
		db:            db,
		ledger:        ledger,
		board:         board,
		refresher:     refresher,
		maxTextLength: maxTextLength,
	}
}

// Create 创建评论。回复他人评论时，在同一事务内给父评论作者 +1 积分。
func (s *CommentService) Create(ctx context.Context, author *models.User, in CreateCommentInput) (*models.Comment, error) {
	if author == nil {
		return nil, models.NewAuthenticationError("an identity is required to comment")
	}
	text, err := normalizeText(in.Text, s.maxTextLength)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		PostID:   in.PostID,
		ParentID: in.ParentID,
		UserID:   author.ID,
		Text:     text,
	}

	var credited *models.KarmaEvent
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTargetExists(tx, models.TargetPost, in.PostID); err != nil {
			return err
		}

		var parent models.Comment
		if in.ParentID != nil {
			err := tx.Select("id", "post_id", "user_id").First(&parent, *in.ParentID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("comment", *in.ParentID)
			}
			if err != nil {
				return fmt.Errorf("load parent comment %d: %w", *in.ParentID, err)
			}
			if parent.PostID != in.PostID {
				return models.NewValidationError("parent comment belongs to a different post")
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		if in.ParentID != nil {
			event, err := s.ledger.credit(tx, parent.UserID, KarmaPerReply, models.KarmaCauseCommentReply, &comment.ID)
			if err != nil {
				return err
			}
			credited = event
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	comment.User = *author

	kind := "root"
	if credited != nil {
		recordCredit(credited)
	}
	if in.ParentID != nil {
		kind = "reply"
		// 积分已提交：丢弃旧快照，保证下一次读取能看到这次积分
		s.board.Invalidate(ctx)
		if s.refresher != nil {
			s.refresher.Schedule()
		}
	}
	metrics.CommentsCreated.WithLabelValues(kind).Inc()

	log.WithFields(log.Fields{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author":     author.Username,
		"kind":       kind,
	}).Info("Comment created")
	return &comment, nil
}

// List 返回帖子下的全部评论（扁平），按创建时间升序
func (s *CommentService) List(ctx context.Context, postID, viewerID uint) ([]models.Comment, error) {
	tx := s.db.WithContext(ctx)
	if err := ensureTargetExists(tx, models.TargetPost, postID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := tx.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", postID, err)
	}

	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	likes, err := loadLikeStats(tx, models.TargetComment, ids, viewerID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].LikeCount = likes.counts[comments[i].ID]
		comments[i].IsLiked = likes.liked[comments[i].ID]
	}
	return comments, nil
}

// Forest 返回帖子下的评论树
func (s *CommentService) Forest(ctx context.Context, postID, viewerID uint) (*CommentForest, error) {
	comments, err := s.List(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}

	forest, err := BuildCommentForest(comments)
	if err != nil {
		log.WithError(err).WithField("post_id", postID).Error("Comment tree is corrupted")
		return nil, err
	}
	return forest, nil
}
