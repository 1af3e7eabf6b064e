// Package dashboard 管理用户保存的可视化组件
package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/datalens-ai/datalens/internal/model"
	"github.com/datalens-ai/datalens/internal/repository"
)

// Service 仪表盘服务
type Service struct {
	repo *repository.Repositories
}

// NewService 创建仪表盘服务
func NewService(repo *repository.Repositories) *Service {
	return &Service{repo: repo}
}

// SaveWidgetRequest 保存组件请求
type SaveWidgetRequest struct {
	Title   string         `json:"title" binding:"required"`
	VisType string         `json:"vis_type" binding:"required,oneof=kpi chart"`
	Payload map[string]any `json:"payload" binding:"required"`
}

// SaveWidget 保存组件，组件一经保存不再变更
func (s *Service) SaveWidget(ctx context.Context, userID string, req *SaveWidgetRequest) (*model.SavedWidget, error) {
	w := &model.SavedWidget{
		ID:      uuid.New().String(),
		UserID:  userID,
		Title:   req.Title,
		VisType: req.VisType,
		Payload: model.JSON(req.Payload),
	}
	if err := s.repo.Widget.Create(w); err != nil {
		return nil, fmt.Errorf("failed to save widget: %w", err)
	}
	return w, nil
}

// ListWidgets 列出用户已保存组件，最新在前
func (s *Service) ListWidgets(ctx context.Context, userID string) ([]*model.SavedWidget, error) {
	return s.repo.Widget.ListByUser(userID)
}
