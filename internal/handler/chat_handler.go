package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datalens-ai/datalens/internal/middleware"
	"github.com/datalens-ai/datalens/internal/model"
	"github.com/datalens-ai/datalens/internal/service"
	"github.com/datalens-ai/datalens/internal/service/insight"
	"github.com/datalens-ai/datalens/internal/service/table"
)

// ChatHandler 分析问答处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建分析问答处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// chatRequest 问答请求，file_id 缺省时使用会话活跃文件
type chatRequest struct {
	Query  string `json:"query" binding:"required"`
	FileID string `json:"file_id"`
}

// Chat 针对数据集提问
// 结果是组件列表（dashboard）或纯文本，出口统一做非法 JSON 值清洗
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	res, err := h.svc.Insight.Answer(c.Request.Context(), userID, req.FileID, req.Query)
	if err != nil {
		if errors.Is(err, insight.ErrNoActiveFile) {
			BadRequest(c, "No active file selected. Please upload a file.")
			return
		}
		InternalServerError(c, err.Error())
		return
	}

	if res.IsDashboard() {
		c.JSON(http.StatusOK, gin.H{
			"type":    "dashboard",
			"payload": cleanWidgets(res.Widgets),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":    "text",
		"payload": res.Text,
	})
}

// cleanWidgets 清洗每个组件 payload 中的非法 JSON 值
func cleanWidgets(widgets []model.Widget) []model.Widget {
	out := make([]model.Widget, len(widgets))
	for i, w := range widgets {
		out[i] = w
		if w.Payload != nil {
			out[i].Payload = table.CleanForJSON(w.Payload).(map[string]any)
		}
	}
	return out
}
