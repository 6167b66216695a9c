package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lawdesk/internal/core/logger"
)

const KeyRequestID = "X-Request-ID"

const maxRequestIDLen = 64

// RequestID 沿用上游传入的请求 id（仅限短的安全字符），否则生成 uuid；
// 同时写进 gin 上下文与 request context，业务日志经 logger.For 带出
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(KeyRequestID)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), rid))
		c.Next()
	}
}

func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
