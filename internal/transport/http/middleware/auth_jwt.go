package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"lawdesk/internal/apperr"
	"lawdesk/internal/core/auth"
	"lawdesk/internal/transport/http/ez"
)

// Principals 按 token 中的 uid 读取当前角色；found 为 false 表示账号已不存在
type Principals interface {
	CurrentRole(ctx context.Context, uid string) (role string, found bool, err error)
}

// AuthJWT 校验 Bearer token，写入 userId / role / claims；requireRole 为空时不限角色。
// p 不为空时角色以存储为准，降级或删除立即生效
func AuthJWT(j *auth.JWTer, p Principals, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			abort(c, apperr.Unauthorized("missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if errors.Is(err, auth.ErrTokenExpired) {
			abort(c, apperr.Unauthorized("token expired"))
			return
		}
		if err != nil {
			abort(c, apperr.Unauthorized("invalid token"))
			return
		}
		role := claims.Role
		if p != nil {
			current, found, err := p.CurrentRole(c.Request.Context(), claims.UID)
			if err != nil {
				abort(c, err)
				return
			}
			if !found {
				abort(c, apperr.Unauthorized("invalid token"))
				return
			}
			role = current
		}
		if requireRole != "" && role != requireRole {
			abort(c, apperr.Forbidden("Forbidden"))
			return
		}
		c.Set("claims", claims)
		c.Set(ez.KeyUserID, claims.UID)
		c.Set(ez.KeyRole, role)
		c.Next()
	}
}

const HeaderBridgeSecret = "X-Bridge-Secret"

// TrustedCaller 只放行携带共享密钥的服务端调用；未配置密钥时一律拒绝
func TrustedCaller(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderBridgeSecret)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			abort(c, apperr.Unauthorized("untrusted caller"))
			return
		}
		c.Next()
	}
}
