package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datalens-ai/datalens/internal/middleware"
	"github.com/datalens-ai/datalens/internal/service"
	"github.com/datalens-ai/datalens/internal/service/dashboard"
)

// WidgetHandler 仪表盘组件处理器
type WidgetHandler struct {
	svc *service.Services
}

// NewWidgetHandler 创建仪表盘组件处理器
func NewWidgetHandler(svc *service.Services) *WidgetHandler {
	return &WidgetHandler{svc: svc}
}

// Save 保存组件到仪表盘
func (h *WidgetHandler) Save(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dashboard.SaveWidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	w, err := h.svc.Dashboard.SaveWidget(c.Request.Context(), userID, &req)
	if err != nil {
		Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Widget saved!", "id": w.ID})
}

// Dashboard 列出已保存组件，最新在前
func (h *WidgetHandler) Dashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	widgets, err := h.svc.Dashboard.ListWidgets(c.Request.Context(), userID)
	if err != nil {
		Error(c, err)
		return
	}

	c.JSON(http.StatusOK, widgets)
}
