package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lawdesk/internal/action"
	"lawdesk/internal/core/auth"
	"lawdesk/internal/core/cache"
	"lawdesk/internal/domain"
	"lawdesk/internal/repo"
	"lawdesk/internal/service"
	"lawdesk/internal/testutil"
	mdw "lawdesk/internal/transport/http/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

type harness struct {
	api, admin *gin.Engine
	jwt        *auth.JWTer
	store      *repo.Store
	svc        *service.Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "lawdesk", TTL: time.Hour}
	store := repo.NewStore(testutil.NewDB(t))
	svc := service.New(store, service.Options{Tokens: jwter, Cache: cache.Nop{}})
	reg := prometheus.NewRegistry()
	deps := Deps{
		Log:          zap.NewNop(),
		Actions:      action.New(svc, zap.NewNop(), reg),
		JWT:          jwter,
		Principals:   svc.Auth,
		BridgeSecret: bridgeSecret,
		Metrics:      reg,
	}
	return &harness{api: NewAPIEngine(deps), admin: NewAdminEngine(deps), jwt: jwter, store: store, svc: svc}
}

func (h *harness) token(t *testing.T, role domain.Role) string {
	t.Helper()
	l, err := h.svc.Lawyers.Create(context.Background(), service.CreateLawyerInput{
		Name: "Staff " + string(role), Email: string(role) + "@firm.io",
		Specialization: domain.SpecOther, Role: role,
	})
	require.NoError(t, err)
	tok, err := h.jwt.Issue(l.ID, string(role))
	require.NoError(t, err)
	return tok
}

const bridgeSecret = "bridge-secret"

func do(t *testing.T, r http.Handler, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var hdr map[string]string
	if token != "" {
		hdr = map[string]string{"Authorization": "Bearer " + token}
	}
	return doWith(t, r, method, path, hdr, body)
}

func doWith(t *testing.T, r http.Handler, method, path string, hdr map[string]string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	w := httptest.NewRecorder()
	h.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	h.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `lawdesk_http_requests_total{method="GET",outcome="none",route="/health",status="200"} 1`)
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	code, env := do(t, h.api, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
	assert.Equal(t, "missing token", env.Error.Message)

	code, env = do(t, h.api, http.MethodPost, "/api/v1/auth/sign-up", "", map[string]string{
		"name": "Jane Doe", "email": "jane@firm.io", "password": "Secr3t!pw",
	})
	require.Equal(t, http.StatusOK, code, env.Error)
	sess := decode[service.Session](t, env.Data)
	assert.Equal(t, domain.RoleGuest, sess.Lawyer.Role)

	code, env = do(t, h.api, http.MethodGet, "/api/v1/me", sess.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "jane@firm.io", decode[domain.Lawyer](t, env.Data).Email)

	code, env = do(t, h.api, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{
		"email": "jane@firm.io", "password": "Wr0ng!pass",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", env.Error.Message)

	// guest 不能写
	code, _ = do(t, h.api, http.MethodPost, "/api/v1/courts", sess.Token, map[string]string{"name": "X", "location": "Y"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = doWith(t, h.api, http.MethodPost, "/api/v1/auth/signin-with-oauth",
		map[string]string{mdw.HeaderBridgeSecret: bridgeSecret}, map[string]any{
			"provider": "google", "providerAccountId": "g-1",
			"user": map[string]string{"name": "Sam", "email": "bad"},
		})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Details, "user.email")
}

func TestCaseEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, domain.RoleAdmin)

	code, env := do(t, h.api, http.MethodPost, "/api/v1/lawyers", admin, map[string]string{
		"name": "Ada", "email": "ada@firm.io", "specialization": "Civil Law", "role": "lawyer",
	})
	require.Equal(t, http.StatusOK, code, env.Error)
	lawyer := decode[domain.Lawyer](t, env.Data)

	code, env = do(t, h.api, http.MethodPost, "/api/v1/courts", admin, map[string]string{"name": "High Court", "location": "Delhi"})
	require.Equal(t, http.StatusOK, code, env.Error)
	court := decode[domain.Court](t, env.Data)

	newCase := map[string]string{
		"caseNumber": "AB12CD34EF56GH78", "title": "Smith v Jones", "clientName": "Smith",
		"lawyerId": lawyer.ID, "courtId": court.ID,
	}
	code, env = do(t, h.api, http.MethodPost, "/api/v1/cases", admin, newCase)
	require.Equal(t, http.StatusOK, code, env.Error)
	created := decode[domain.CaseView](t, env.Data)
	require.NotNil(t, created.Lawyer)
	assert.Equal(t, "Ada", created.Lawyer.Name)
	assert.Empty(t, created.HearingIDs)

	code, env = do(t, h.api, http.MethodPost, "/api/v1/cases", admin, newCase)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Case number already exists", env.Error.Message)

	newCase["caseNumber"] = "ZZ12CD34EF56GH78"
	newCase["lawyerId"] = "6650b1c2e4b0a1a2b3c4d5e6"
	code, _ = do(t, h.api, http.MethodPost, "/api/v1/cases", admin, newCase)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = do(t, h.api, http.MethodPost, "/api/v1/cases", admin, `{"title": 5}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{"must be a string"}, env.Error.Details["title"])

	code, env = do(t, h.api, http.MethodGet, "/api/v1/cases?page=abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{"must be a number"}, env.Error.Details["page"])

	code, env = do(t, h.api, http.MethodGet, "/api/v1/cases?page=0", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Details, "page")

	code, env = do(t, h.api, http.MethodGet, "/api/v1/cases?sort=bogus", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Details, "sort")

	code, env = do(t, h.api, http.MethodGet, "/api/v1/cases?query=smith&status=pending", admin, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		Items  []domain.CaseView `json:"items"`
		IsNext bool              `json:"isNext"`
	}](t, env.Data)
	require.Len(t, page.Items, 1)
	assert.False(t, page.IsNext)

	code, _ = do(t, h.api, http.MethodGet, "/api/v1/cases/not-an-id", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, h.api, http.MethodPost, "/api/v1/hearings", admin, map[string]string{
		"caseNumber": "AB12CD34EF56GH78", "date": "2030-01-15",
	})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = do(t, h.api, http.MethodGet, "/api/v1/dashboard/stats", admin, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[service.DashboardStats](t, env.Data)
	assert.Equal(t, int64(1), stats.TotalCases)
	assert.Equal(t, int64(1), stats.UpcomingHearings)

	code, _ = do(t, h.api, http.MethodDelete, "/api/v1/cases/"+created.ID, admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, env = do(t, h.api, http.MethodPost, "/api/v1/lawyers/email", admin, map[string]string{"email": "ada@firm.io"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), decode[domain.Lawyer](t, env.Data).CaseCount)
}

func TestAdminEngine(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, domain.RoleAdmin)
	lawyer := h.token(t, domain.RoleLawyer)

	code, _ := do(t, h.admin, http.MethodPost, "/admin/v1/lawyers/recount", lawyer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := do(t, h.admin, http.MethodPost, "/admin/v1/lawyers/recount", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), decode[service.RecountResult](t, env.Data).Updated)

	l, err := h.svc.Lawyers.GetByEmail(context.Background(), "lawyer@firm.io")
	require.NoError(t, err)
	code, env = do(t, h.admin, http.MethodPut, "/admin/v1/lawyers/"+l.ID+"/role", admin, map[string]string{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Details, "role")

	code, env = do(t, h.admin, http.MethodPut, "/admin/v1/lawyers/"+l.ID+"/role", admin, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.RoleAdmin, decode[domain.Lawyer](t, env.Data).Role)
}

func TestOAuthBridgeIssuesNoToken(t *testing.T) {
	h := newHarness(t)
	h.token(t, domain.RoleAdmin)
	claim := map[string]any{
		"provider": "google", "providerAccountId": "attacker",
		"user": map[string]string{"name": "Staff admin", "email": "admin@firm.io"},
	}

	// 没有共享密钥：拒绝，且不落任何账号
	code, env := do(t, h.api, http.MethodPost, "/api/v1/auth/signin-with-oauth", "", claim)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "untrusted caller", env.Error.Message)
	code, _ = doWith(t, h.api, http.MethodPost, "/api/v1/auth/signin-with-oauth",
		map[string]string{mdw.HeaderBridgeSecret: "guess"}, claim)
	assert.Equal(t, http.StatusUnauthorized, code)

	admin, err := h.svc.Lawyers.GetByEmail(context.Background(), "admin@firm.io")
	require.NoError(t, err)
	accs, err := h.store.Accounts.ListByUser(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Empty(t, accs)

	// 可信调用方：只返回律师，信封里没有 token
	code, env = doWith(t, h.api, http.MethodPost, "/api/v1/auth/signin-with-oauth",
		map[string]string{mdw.HeaderBridgeSecret: bridgeSecret}, claim)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.NotContains(t, string(env.Data), "token")
	assert.Equal(t, admin.ID, decode[domain.Lawyer](t, env.Data).ID)

	code, _ = do(t, h.admin, http.MethodPost, "/admin/v1/lawyers/recount", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRevokedAccessTakesEffect(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, domain.RoleAdmin)
	lawyerTok := h.token(t, domain.RoleLawyer)
	l, err := h.svc.Lawyers.GetByEmail(context.Background(), "lawyer@firm.io")
	require.NoError(t, err)

	court := map[string]string{"name": "District Court", "location": "Pune"}
	code, _ := do(t, h.api, http.MethodPost, "/api/v1/courts", lawyerTok, court)
	require.Equal(t, http.StatusOK, code)

	// 降级后旧 token 立即失去写权限
	code, _ = do(t, h.admin, http.MethodPut, "/admin/v1/lawyers/"+l.ID+"/role", admin, map[string]string{"role": "guest"})
	require.Equal(t, http.StatusOK, code)
	court["name"] = "Sessions Court"
	code, _ = do(t, h.api, http.MethodPost, "/api/v1/courts", lawyerTok, court)
	assert.Equal(t, http.StatusForbidden, code)

	// 删除后旧 token 无效
	code, _ = do(t, h.api, http.MethodDelete, "/api/v1/lawyers/"+l.ID, admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, env := do(t, h.api, http.MethodGet, "/api/v1/me", lawyerTok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid token", env.Error.Message)
	code, _ = do(t, h.api, http.MethodGet, "/api/v1/cases", lawyerTok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// 升级同样以存储为准
	h.token(t, domain.RoleGuest)
	g, err := h.svc.Lawyers.GetByEmail(context.Background(), "guest@firm.io")
	require.NoError(t, err)
	_, err = h.svc.Lawyers.SetRole(context.Background(), g.ID, domain.RoleAdmin)
	require.NoError(t, err)
	guestTok, err := h.jwt.Issue(g.ID, "guest")
	require.NoError(t, err)
	code, _ = do(t, h.admin, http.MethodPost, "/admin/v1/lawyers/recount", guestTok, nil)
	assert.Equal(t, http.StatusOK, code)
}
