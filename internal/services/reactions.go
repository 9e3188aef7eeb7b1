package services

import (
	"context"
	"errors"
	"fmt"
	"karmafeed/internal/metrics"
	"karmafeed/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 并发切换时 DELETE 和 INSERT 都可能落空，最多重试的次数
const maxToggleAttempts = 3

// ToggleResult 是一次点赞切换后的权威状态
type ToggleResult struct {
	Liked     bool  `json:"liked"`
	Delta     int   `json:"delta"`
	LikeCount int64 `json:"like_count"`
}

// ReactionService 管理帖子和评论上的点赞
type ReactionService struct {
	db *gorm.DB
}

func NewReactionService(db *gorm.DB) *ReactionService {
	return &ReactionService{db: db}
}

// Toggle 翻转 actor 在目标上的点赞状态。
// 以 (user_id, target_type, target_id) 为键做条件删除，未删除到行时再以
// ON CONFLICT DO NOTHING 插入；两步都未生效说明有并发切换，重试。
func (s *ReactionService) Toggle(ctx context.Context, actor *models.User, targetType models.TargetType, targetID uint) (*ToggleResult, error) {
	if actor == nil {
		return nil, models.NewAuthenticationError("an identity is required to like")
	}
	if !targetType.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown like target %q", targetType))
	}

	var result ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTargetExists(tx, targetType, targetID); err != nil {
			return err
		}

		for attempt := 0; attempt < maxToggleAttempts; attempt++ {
			res := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", actor.ID, targetType, targetID).
				Delete(&models.Like{})
			if res.Error != nil {
				return fmt.Errorf("remove like: %w", res.Error)
			}
			if res.RowsAffected > 0 {
				result = ToggleResult{Liked: false, Delta: -1}
				break
			}

			like := models.Like{UserID: actor.ID, TargetType: targetType, TargetID: targetID}
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
			if res.Error != nil {
				return fmt.Errorf("add like: %w", res.Error)
			}
			if res.RowsAffected > 0 {
				result = ToggleResult{Liked: true, Delta: 1}
				break
			}

			log.WithFields(log.Fields{
				"user_id": actor.ID,
				"target":  targetType,
				"id":      targetID,
				"attempt": attempt + 1,
			}).Debug("Concurrent like toggle detected, retrying")
		}
		if result.Delta == 0 {
			return fmt.Errorf("toggle like on %s %d: gave up after %d attempts", targetType, targetID, maxToggleAttempts)
		}

		return tx.Model(&models.Like{}).
			Where("target_type = ? AND target_id = ?", targetType, targetID).
			Count(&result.LikeCount).Error
	})
	if err != nil {
		return nil, err
	}

	outcome := "unliked"
	if result.Liked {
		outcome = "liked"
	}
	metrics.ReactionsToggled.WithLabelValues(string(targetType), outcome).Inc()
	return &result, nil
}

// Count 统计目标上的点赞数
func (s *ReactionService) Count(ctx context.Context, targetType models.TargetType, targetID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&count).Error
	return count, err
}

func ensureTargetExists(tx *gorm.DB, targetType models.TargetType, targetID uint) error {
	var model interface{}
	switch targetType {
	case models.TargetPost:
		model = &models.Post{}
	case models.TargetComment:
		model = &models.Comment{}
	}

	err := tx.Select("id").First(model, targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(string(targetType), targetID)
	}
	if err != nil {
		return fmt.Errorf("load %s %d: %w", targetType, targetID, err)
	}
	return nil
}

type likeStats struct {
	counts map[uint]int64
	liked  map[uint]bool
}

// loadLikeStats 批量统计一组目标的点赞数以及 viewer 是否点过赞
func loadLikeStats(tx *gorm.DB, targetType models.TargetType, ids []uint, viewerID uint) (likeStats, error) {
	stats := likeStats{
		counts: make(map[uint]int64, len(ids)),
		liked:  make(map[uint]bool),
	}
	if len(ids) == 0 {
		return stats, nil
	}

	type countResult struct {
		TargetID uint
		Count    int64
	}
	var counts []countResult
	if err := tx.Model(&models.Like{}).
		Select("target_id, COUNT(*) as count").
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Group("target_id").
		Scan(&counts).Error; err != nil {
		return stats, fmt.Errorf("count %s likes: %w", targetType, err)
	}
	for _, c := range counts {
		stats.counts[c.TargetID] = c.Count
	}

	if viewerID == 0 {
		return stats, nil
	}
	var likedIDs []uint
	if err := tx.Model(&models.Like{}).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", viewerID, targetType, ids).
		Pluck("target_id", &likedIDs).Error; err != nil {
		return stats, fmt.Errorf("load viewer %s likes: %w", targetType, err)
	}
	for _, id := range likedIDs {
		stats.liked[id] = true
	}
	return stats, nil
}
