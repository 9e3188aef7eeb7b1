package models

import (
	"time"
)

// 积分来源
const (
	KarmaCauseCommentReply = "comment_reply"
)

// KarmaEvent 只追加不修改，是排行榜的唯一数据来源
type KarmaEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Amount      int       `gorm:"not null" json:"amount"`
	Cause       string    `gorm:"size:100;not null" json:"cause"`
	ReferenceID *uint     `json:"reference_id,omitempty"` // 触发积分的回复 ID，帖子删除后保留
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
