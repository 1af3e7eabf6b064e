package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware 日志中间件
// 身份解析在 c.Next() 内完成，返回后才能取到本请求的 user_id
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		userID := "-"
		if id, ok := GetUserID(c); ok {
			userID = id
		}

		log.Printf("%s %s | Status: %d | Latency: %v | User: %s | IP: %s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			userID,
			c.ClientIP(),
		)
	}
}
