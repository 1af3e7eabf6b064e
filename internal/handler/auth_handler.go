package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datalens-ai/datalens/internal/service"
	"github.com/datalens-ai/datalens/internal/service/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.Services
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register 用户注册，成功直接签发令牌
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	resp, err := h.svc.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, resp)
}

// loginRequest 登录请求，兼容 JSON 和 OAuth2 表单（username 字段即邮箱）
type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Token 凭证换令牌
func (h *AuthHandler) Token(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	email := req.Email
	if email == "" {
		email = req.Username
	}
	if email == "" {
		BadRequest(c, "Email is required")
		return
	}

	resp, err := h.svc.Auth.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, resp)
}
