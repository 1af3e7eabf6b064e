package handler

import "github.com/datalens-ai/datalens/internal/service"

// Handlers 处理器集合
type Handlers struct {
	Auth    *AuthHandler
	Dataset *DatasetHandler
	Chat    *ChatHandler
	Widget  *WidgetHandler
	System  *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:    NewAuthHandler(svc),
		Dataset: NewDatasetHandler(svc),
		Chat:    NewChatHandler(svc),
		Widget:  NewWidgetHandler(svc),
		System:  NewSystemHandler(svc),
	}
}
