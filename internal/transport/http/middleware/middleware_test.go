package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"lawdesk/internal/apperr"
	"lawdesk/internal/core/auth"
	"lawdesk/internal/core/logger"
	"lawdesk/internal/transport/http/ez"
)

func engine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString(ez.KeyUserID), "role": c.GetString(ez.KeyRole)})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthJWT(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("k"), Issuer: "lawdesk", TTL: time.Hour}
	tok, err := j.Issue("u1", "lawyer")
	require.NoError(t, err)

	r := engine(AuthJWT(j, nil, ""))
	w := get(r, "/x", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"missing token"}}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/x", "garbage").Code)

	w = get(r, "/x", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"u1","role":"lawyer"}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, get(engine(AuthJWT(j, nil, "admin")), "/x", tok).Code)

	expired := &auth.JWTer{Secret: []byte("k"), Issuer: "lawdesk", TTL: -time.Hour}
	old, err := expired.Issue("u1", "lawyer")
	require.NoError(t, err)
	w = get(r, "/x", old)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestRecoveryEnvelope(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := get(engine(RequestID(), SimpleRecovery(zap.New(core))), "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"An unexpected error occurred"}}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestRateLimit(t *testing.T) {
	r := engine(RateLimit(0.001, 2))
	assert.Equal(t, http.StatusOK, get(r, "/x", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/x", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/x", "").Code)
}

func TestAccessLogMasksSecrets(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := engine(RequestID(), AccessLog(zap.New(core)))
	w := get(r, "/x?token=abc&page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0].ContextMap()
	q := entry["query"].(map[string][]string)
	assert.Equal(t, []string{"****"}, q["token"])
	assert.Equal(t, []string{"2"}, q["page"])
	assert.Equal(t, w.Header().Get(KeyRequestID), entry["rid"])
	assert.False(t, strings.Contains(w.Body.String(), "abc"))
}

type stubPrincipals map[string]string

func (s stubPrincipals) CurrentRole(_ context.Context, uid string) (string, bool, error) {
	if uid == "down" {
		return "", false, apperr.Transient("db down", nil)
	}
	role, ok := s[uid]
	return role, ok, nil
}

func TestAuthJWTUsesStoredRole(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("k"), Issuer: "lawdesk", TTL: time.Hour}
	p := stubPrincipals{"demoted": "guest", "boss": "admin"}
	issue := func(uid, role string) string {
		tok, err := j.Issue(uid, role)
		require.NoError(t, err)
		return tok
	}

	// token 里写的是 admin，存储里已降为 guest
	w := get(engine(AuthJWT(j, p, "")), "/x", issue("demoted", "admin"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"demoted","role":"guest"}`, w.Body.String())
	assert.Equal(t, http.StatusForbidden, get(engine(AuthJWT(j, p, "admin")), "/x", issue("demoted", "admin")).Code)
	assert.Equal(t, http.StatusOK, get(engine(AuthJWT(j, p, "admin")), "/x", issue("boss", "guest")).Code)

	w = get(engine(AuthJWT(j, p, "")), "/x", issue("gone", "lawyer"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")

	assert.Equal(t, http.StatusServiceUnavailable, get(engine(AuthJWT(j, p, "")), "/x", issue("down", "lawyer")).Code)
}

func TestTrustedCaller(t *testing.T) {
	call := func(r http.Handler, secret string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if secret != "" {
			req.Header.Set(HeaderBridgeSecret, secret)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	r := engine(TrustedCaller("shh"))
	assert.Equal(t, http.StatusUnauthorized, call(r, ""))
	assert.Equal(t, http.StatusUnauthorized, call(r, "nope"))
	assert.Equal(t, http.StatusOK, call(r, "shh"))

	// 未配置密钥时接口关闭
	assert.Equal(t, http.StatusUnauthorized, call(engine(TrustedCaller("")), ""))
}

func TestMetricsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newHTTPMetrics(reg)
	r := engine(m.handle)
	r.GET("/cases/:id", func(c *gin.Context) { abort(c, apperr.NotFound("Case")) })

	get(r, "/x", "")
	get(r, "/cases/1", "")
	get(r, "/nowhere", "")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("/x", "GET", "200", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("/cases/:id", "GET", "404", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("unmatched", "GET", "404", "none")))

	// 同一 registry 再建一次复用已有 collector
	again := newHTTPMetrics(reg)
	assert.Same(t, m.total, again.total)
	n, err := testutil.GatherAndCount(reg, "lawdesk_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRequestID(t *testing.T) {
	var seen string
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { seen = logger.RequestID(c.Request.Context()) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "edge-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "edge-42", w.Header().Get(KeyRequestID))
	assert.Equal(t, "edge-42", seen)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "bad id "+strings.Repeat("x", 80))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(KeyRequestID), 36)
	assert.Equal(t, w.Header().Get(KeyRequestID), seen)
}

func TestIPBucketsExpire(t *testing.T) {
	b := newIPBuckets(1, 1, 50*time.Millisecond)
	first := b.get("10.0.0.1")
	assert.Same(t, first, b.get("10.0.0.1"))
	b.get("10.0.0.2")
	assert.Equal(t, 2, b.items.ItemCount())

	time.Sleep(120 * time.Millisecond)
	b.items.DeleteExpired()
	assert.Equal(t, 0, b.items.ItemCount())
	assert.NotSame(t, first, b.get("10.0.0.1"))
}
