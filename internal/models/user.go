package models

import (
	"time"
)

// User 由身份解析器按用户名懒创建，不保存任何凭据
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string    `gorm:"size:254" json:"email,omitempty"` // 最近一次解析时携带的邮箱，仅供展示
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
