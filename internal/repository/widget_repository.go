package repository

import (
	"github.com/datalens-ai/datalens/internal/model"
	"gorm.io/gorm"
)

// widgetRepositoryImpl 已保存组件仓库实现
type widgetRepositoryImpl struct {
	db *gorm.DB
}

// NewWidgetRepository 创建已保存组件仓库
func NewWidgetRepository(db *gorm.DB) WidgetRepository {
	return &widgetRepositoryImpl{db: db}
}

// Create 保存组件
func (r *widgetRepositoryImpl) Create(w *model.SavedWidget) error {
	return r.db.Create(w).Error
}

// ListByUser 列出用户已保存组件，最新在前
func (r *widgetRepositoryImpl) ListByUser(userID string) ([]*model.SavedWidget, error) {
	var widgets []*model.SavedWidget
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&widgets).Error; err != nil {
		return nil, err
	}
	return widgets, nil
}
