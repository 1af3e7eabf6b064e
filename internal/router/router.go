package router

import (
	"github.com/gin-gonic/gin"

	"github.com/datalens-ai/datalens/internal/handler"
	"github.com/datalens-ai/datalens/internal/middleware"
	"github.com/datalens-ai/datalens/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(svc *service.Services, h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.IdentityMiddleware(svc))

	// 健康检查
	r.GET("/health", h.System.Health)

	// 认证
	r.POST("/register", h.Auth.Register)
	r.POST("/token", h.Auth.Token)

	// 数据集
	r.POST("/upload", h.Dataset.Upload)
	r.POST("/connect_url", h.Dataset.ConnectURL)
	r.GET("/files", h.Dataset.List)
	r.DELETE("/files/:id", h.Dataset.Delete)

	// 对话分析
	r.POST("/chat", h.Chat.Chat)

	// 仪表板,需要登录
	authed := r.Group("", middleware.RequireAuth(svc))
	{
		authed.POST("/widget/save", h.Widget.Save)
		authed.GET("/dashboard", h.Widget.Dashboard)
	}

	return r
}
