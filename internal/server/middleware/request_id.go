package middleware

import (
	"github.com/gin-gonic/gin"

	"citron/internal/pkg/id"
)

// RequestID 请求 ID 中间件
// 客户端未携带 X-Request-ID 时生成一个
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = id.New()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}
