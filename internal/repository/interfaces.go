// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import "github.com/datalens-ai/datalens/internal/model"

// AuthRepository 用户数据访问接口
type AuthRepository interface {
	CreateUser(user *model.User) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id string) (*model.User, error)
	UpdateUser(user *model.User) error
}

// DatasetRepository 数据集记录访问接口
// ListByUser 按 (created_at, id) 升序返回，
// 会话恢复依赖这个确定性顺序来选出首个活跃文件
type DatasetRepository interface {
	Create(file *model.DatasetFile) error
	GetByID(id string) (*model.DatasetFile, error)
	ListByUser(userID string) ([]*model.DatasetFile, error)
	Delete(id string) error
}

// WidgetRepository 已保存组件访问接口
type WidgetRepository interface {
	Create(w *model.SavedWidget) error
	ListByUser(userID string) ([]*model.SavedWidget, error)
}

// 确保实现满足接口
var (
	_ AuthRepository    = (*authRepositoryImpl)(nil)
	_ DatasetRepository = (*datasetRepositoryImpl)(nil)
	_ WidgetRepository  = (*widgetRepositoryImpl)(nil)
)
