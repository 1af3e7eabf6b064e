package middleware

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/datalens-ai/datalens/internal/model"
	"github.com/datalens-ai/datalens/internal/service"
)

// sessionIDRange 会话 id 哈希取模范围，保持可读的数字 id
const sessionIDRange = 100_000_000

// IdentityMiddleware 解析请求身份
// 有效 JWT 优先；否则把 X-Session-ID 哈希成稳定数字 id 作会话作用域。
// 哈希方案只是对真实认证用户 id 的替代，凡是强制认证的路由都改用 RequireAuth
func IdentityMiddleware(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if user, err := svc.Auth.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set("user", user)
				c.Set("user_id", user.ID)
				c.Next()
				return
			}
			// Token 无效，退回会话身份
		}

		c.Set("user_id", SessionUserID(c.GetHeader("X-Session-ID")))
		c.Next()
	}
}

// SessionUserID 把请求携带的会话 id 映射为稳定数字 id
func SessionUserID(sessionID string) string {
	if sessionID == "" {
		sessionID = "default-session"
	}
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	return strconv.FormatUint(h.Sum64()%sessionIDRange, 10)
}

// RequireAuth 要求有效认证的中间件
func RequireAuth(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Missing or malformed Authorization header",
			})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		user, err := svc.Auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// GetCurrentUser 从上下文获取当前用户
func GetCurrentUser(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetUserID 从上下文获取当前用户ID
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
