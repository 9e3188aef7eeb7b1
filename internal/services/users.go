package services

import (
	"context"
	"errors"
	"fmt"
	"karmafeed/internal/models"

	"gorm.io/gorm"
)

// UserService 维护身份解析得到的用户记录
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Ensure 按解析出的用户名获取或创建用户
func (s *UserService) Ensure(ctx context.Context, id Identity) (*models.User, error) {
	res, err := ResolveUsername(id)
	if err != nil {
		return nil, err
	}

	user := models.User{Username: res.Username}
	if err := s.db.WithContext(ctx).
		Where(models.User{Username: res.Username}).
		Attrs(models.User{Email: identityEmail(id)}).
		FirstOrCreate(&user).Error; err != nil {
		// 并发请求可能同时创建同名用户，唯一索引冲突后重新读取一次
		existing, findErr := s.FindByUsername(ctx, res.Username)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("ensure user %s: %w", res.Username, err)
	}
	return &user, nil
}

// Lookup 只读查找，不会创建用户；用户不存在时返回 (nil, nil)
func (s *UserService) Lookup(ctx context.Context, id Identity) (*models.User, error) {
	res, err := ResolveUsername(id)
	if err != nil {
		return nil, err
	}
	return s.FindByUsername(ctx, res.Username)
}

// FindByUsername 用户不存在时返回 (nil, nil)
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	return &user, nil
}

func identityEmail(id Identity) string {
	if id.Email != "" {
		return id.Email
	}
	if id.Session != nil {
		return id.Session.Email
	}
	return ""
}
