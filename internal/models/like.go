package models

import (
	"time"
)

// TargetType 标识可被点赞的内容类型
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// Valid reports whether t names a likeable content type.
func (t TargetType) Valid() bool {
	return t == TargetPost || t == TargetComment
}

// Like 是 (user, target) 上的存在性记录；点赞数始终由行数统计得出
type Like struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_like_actor_target" json:"user_id"`
	TargetType TargetType `gorm:"size:16;not null;uniqueIndex:idx_like_actor_target;index:idx_like_target" json:"target_type"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_like_actor_target;index:idx_like_target" json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}
