package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lawdesk/internal/apperr"
	"lawdesk/internal/transport/http/ez"
	resp "lawdesk/internal/transport/http/response"
)

// abort 以统一信封终止请求
func abort(c *gin.Context, err error) {
	res := resp.Fail[struct{}](err)
	c.Set(ez.KeyOutcome, res.Outcome())
	c.AbortWithStatusJSON(res.Status(), res)
}

func SimpleRecovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				abort(c, apperr.Internal("internal error", nil))
			}
		}()
		c.Next()
	}
}
