package services

import (
	"context"
	"errors"
	"fmt"
	"karmafeed/internal/metrics"
	"karmafeed/internal/models"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 回复评论时父评论作者获得的积分
const KarmaPerReply = 1

// KarmaLedger 只追加的积分流水
type KarmaLedger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewKarmaLedger(db *gorm.DB) *KarmaLedger {
	return &KarmaLedger{db: db, now: time.Now}
}

// Credit 为 recipient 追加一条积分记录
func (l *KarmaLedger) Credit(ctx context.Context, recipientID uint, amount int, cause string, referenceID *uint) (*models.KarmaEvent, error) {
	var event *models.KarmaEvent
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = l.credit(tx, recipientID, amount, cause, referenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	recordCredit(event)
	return event, nil
}

// credit 在调用方的事务中追加积分记录，使触发动作与积分原子生效
func (l *KarmaLedger) credit(tx *gorm.DB, recipientID uint, amount int, cause string, referenceID *uint) (*models.KarmaEvent, error) {
	var user models.User
	err := tx.Select("id").First(&user, recipientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewUnknownRecipientError(recipientID)
	}
	if err != nil {
		return nil, fmt.Errorf("load karma recipient %d: %w", recipientID, err)
	}

	event := models.KarmaEvent{
		UserID:      recipientID,
		Amount:      amount,
		Cause:       cause,
		ReferenceID: referenceID,
		CreatedAt:   l.now().UTC(),
	}
	if err := tx.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("append karma event: %w", err)
	}
	return &event, nil
}

// recordCredit 在事务提交之后调用，回滚的积分不计入指标
func recordCredit(event *models.KarmaEvent) {
	metrics.KarmaCredited.WithLabelValues(event.Cause).Inc()
	log.WithFields(log.Fields{
		"recipient_id": event.UserID,
		"amount":       event.Amount,
		"cause":        event.Cause,
	}).Debug("Karma credited")
}

// Total 用户的累计积分
func (l *KarmaLedger) Total(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := l.db.WithContext(ctx).Model(&models.KarmaEvent{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum karma for user %d: %w", userID, err)
	}
	return total, nil
}

// WindowTotal 用户在 [now-window, now] 区间内获得的积分
func (l *KarmaLedger) WindowTotal(ctx context.Context, userID uint, window time.Duration) (int64, error) {
	now := l.now().UTC()
	var total int64
	err := l.db.WithContext(ctx).Model(&models.KarmaEvent{}).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, now.Add(-window), now).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum windowed karma for user %d: %w", userID, err)
	}
	return total, nil
}

// History 最近的积分记录，按时间倒序
func (l *KarmaLedger) History(ctx context.Context, userID uint, limit int) ([]models.KarmaEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.KarmaEvent
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("load karma history for user %d: %w", userID, err)
	}
	return events, nil
}
