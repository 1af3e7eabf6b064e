package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datalens-ai/datalens/internal/middleware"
	"github.com/datalens-ai/datalens/internal/service"
	"github.com/datalens-ai/datalens/internal/service/ingest"
	"github.com/datalens-ai/datalens/internal/service/session"
	"github.com/datalens-ai/datalens/internal/service/table"
)

// DatasetHandler 数据集处理器
type DatasetHandler struct {
	svc *service.Services
}

// NewDatasetHandler 创建数据集处理器
func NewDatasetHandler(svc *service.Services) *DatasetHandler {
	return &DatasetHandler{svc: svc}
}

// Upload 上传数据文件
func (h *DatasetHandler) Upload(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "Missing file: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		InternalServerError(c, "Failed to read upload: "+err.Error())
		return
	}
	defer src.Close()

	rec, err := h.svc.Ingest.SaveUpload(c.Request.Context(), userID, fileHeader.Filename, src)
	if err != nil {
		if errors.Is(err, table.ErrUnsupportedFormat) {
			BadRequest(c, err.Error())
			return
		}
		InternalServerError(c, err.Error())
		return
	}

	h.respondConnected(c, userID, rec, "File Uploaded")
}

// connectRequest 连接远程表格请求
type connectRequest struct {
	URL string `json:"url" binding:"required"`
}

// ConnectURL 连接远程表格
func (h *DatasetHandler) ConnectURL(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	rec, err := h.svc.Ingest.ConnectURL(c.Request.Context(), userID, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrPermissionDenied):
			BadRequest(c, "Permission Error: sheet is private. Please share it publicly.")
		case ingest.IsTimeout(err):
			BadRequest(c, "Connection Timed Out.")
		default:
			BadRequest(c, "Failed to connect: "+err.Error())
		}
		return
	}

	message := fmt.Sprintf("Connected! Loaded %d rows.", rec.Table.NumRows())
	h.respondConnected(c, userID, rec, message)
}

// respondConnected 发布记录到会话、调度预热并返回预览响应
// 预览快照先于发布提取：记录一旦进入会话并调度预热，
// 表格字段就只能在记录锁内访问
func (h *DatasetHandler) respondConnected(c *gin.Context, userID string, rec *session.FileRecord, message string) {
	resp := map[string]any{
		"message":  message,
		"file_id":  rec.ID,
		"filename": rec.Filename,
		"columns":  rec.Table.Columns,
		"preview":  previewRecords(rec.Table),
	}

	state := h.svc.Sessions.GetOrCreate(userID)
	state.AddFile(rec)
	h.svc.Warmer.Schedule(userID, rec.ID)

	c.JSON(http.StatusOK, table.CleanForJSON(resp))
}

// previewRecords 前 5 行预览，map 元素转为 any 便于统一清洗
func previewRecords(t *table.Table) []any {
	records := t.Preview(5)
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = rec
	}
	return out
}

// List 列出会话内全部数据集
func (h *DatasetHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	state := h.svc.Sessions.GetOrCreate(userID)

	files := make([]map[string]any, 0)
	for _, rec := range state.ListFiles() {
		files = append(files, map[string]any{
			"id":       rec.ID,
			"filename": rec.Filename,
			"source":   rec.Source,
		})
	}
	c.JSON(http.StatusOK, files)
}

// Delete 删除数据集：会话、持久化记录与磁盘临时副本
func (h *DatasetHandler) Delete(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	fileID := c.Param("id")

	state := h.svc.Sessions.GetOrCreate(userID)
	rec := state.RemoveFile(fileID)
	if rec == nil {
		NotFound(c, "File not found")
		return
	}

	if err := h.svc.Ingest.Delete(c.Request.Context(), rec.ID, rec.Path); err != nil {
		InternalServerError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
