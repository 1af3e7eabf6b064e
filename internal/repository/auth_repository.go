package repository

import (
	"github.com/datalens-ai/datalens/internal/model"
	"gorm.io/gorm"
)

// authRepositoryImpl 用户仓库实现
type authRepositoryImpl struct {
	db *gorm.DB
}

// NewAuthRepository 创建用户仓库
func NewAuthRepository(db *gorm.DB) AuthRepository {
	return &authRepositoryImpl{db: db}
}

// CreateUser 创建用户
func (r *authRepositoryImpl) CreateUser(user *model.User) error {
	return r.db.Create(user).Error
}

// GetUserByEmail 根据邮箱获取用户
func (r *authRepositoryImpl) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID 根据 ID 获取用户
func (r *authRepositoryImpl) GetUserByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser 更新用户
func (r *authRepositoryImpl) UpdateUser(user *model.User) error {
	return r.db.Save(user).Error
}
