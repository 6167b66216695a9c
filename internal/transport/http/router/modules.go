package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lawdesk/internal/action"
	"lawdesk/internal/domain"
	"lawdesk/internal/query"
	"lawdesk/internal/repo"
	"lawdesk/internal/service"
	"lawdesk/internal/transport/http/ez"
	mdw "lawdesk/internal/transport/http/middleware"
	resp "lawdesk/internal/transport/http/response"
)

var (
	writers = []string{string(domain.RoleAdmin), string(domain.RoleLawyer)}
	admins  = []string{string(domain.RoleAdmin)}
)

// Modules 业务模块全集
func Modules(deps Deps) []any {
	d := deps.Actions
	return []any{
		authModule{d, deps.BridgeSecret}, lawyerModule{d}, courtModule{d},
		caseModule{d}, hearingModule{d}, dashboardModule{d},
	}
}

/* ================== auth ================== */

type authModule struct {
	d            *action.Dispatcher
	bridgeSecret string
}

func (authModule) Priority() int { return 10 }

func (m authModule) MountAPI(g Groups) {
	// 登录入口按 IP 限速
	grp := g.Public.Group("/auth", mdw.RateLimitPerIP(5, 20))
	pub := ez.New(grp)

	ez.RegisterAction(pub, ez.Action[service.SignUpInput, *service.Session]{
		Method: http.MethodPost, Path: "/sign-up", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.SignUpInput) resp.Result[*service.Session] {
			return m.d.SignUp(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(pub, ez.Action[service.SignInInput, *service.Session]{
		Method: http.MethodPost, Path: "/sign-in", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.SignInInput) resp.Result[*service.Session] {
			return m.d.SignIn(c.Request.Context(), *in)
		},
	})
	// 上游认证服务完成外部身份校验后回调；不签发 token
	bridge := ez.New(grp.Group("", mdw.TrustedCaller(m.bridgeSecret)))
	ez.RegisterAction(bridge, ez.Action[service.OAuthSignInInput, *domain.Lawyer]{
		Method: http.MethodPost, Path: "/signin-with-oauth", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.OAuthSignInInput) resp.Result[*domain.Lawyer] {
			return m.d.OAuthSignIn(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(ez.New(g.Authed), ez.Action[struct{}, *domain.Lawyer]{
		Method: http.MethodGet, Path: "/me", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[*domain.Lawyer] {
			return m.d.Me(c.Request.Context(), ez.UserID(c))
		},
	})
}

/* ================== lawyers ================== */

type lawyerModule struct{ d *action.Dispatcher }

func (m lawyerModule) MountAPI(g Groups) {
	e := ez.New(g.Authed)
	ez.RegisterAction(e, ez.Action[query.LawyerFilter, query.Result[domain.Lawyer]]{
		Method: http.MethodGet, Path: "/lawyers", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *query.LawyerFilter) resp.Result[query.Result[domain.Lawyer]] {
			return m.d.ListLawyers(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[service.CreateLawyerInput, *domain.Lawyer]{
		Method: http.MethodPost, Path: "/lawyers", Binder: ez.BindJSON, Auth: true, Roles: admins,
		Handler: func(c *gin.Context, in *service.CreateLawyerInput) resp.Result[*domain.Lawyer] {
			return m.d.CreateLawyer(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[action.EmailInput, *domain.Lawyer]{
		Method: http.MethodPost, Path: "/lawyers/email", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *action.EmailInput) resp.Result[*domain.Lawyer] {
			return m.d.GetLawyerByEmail(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Lawyer]{
		Method: http.MethodGet, Path: "/lawyers/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[*domain.Lawyer] {
			return m.d.GetLawyer(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[service.UpdateLawyerInput, *domain.Lawyer]{
		Method: http.MethodPut, Path: "/lawyers/:id", Binder: ez.BindJSON, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, in *service.UpdateLawyerInput) resp.Result[*domain.Lawyer] {
			return m.d.UpdateLawyer(c.Request.Context(), c.Param("id"), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, action.Empty]{
		Method: http.MethodDelete, Path: "/lawyers/:id", Binder: ez.BindNone, Auth: true, Roles: admins,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[action.Empty] {
			return m.d.DeleteLawyer(c.Request.Context(), c.Param("id"))
		},
	})
}

/* ================== courts ================== */

type courtModule struct{ d *action.Dispatcher }

func (m courtModule) MountAPI(g Groups) {
	e := ez.New(g.Authed)
	ez.RegisterAction(e, ez.Action[query.CourtFilter, query.Result[domain.Court]]{
		Method: http.MethodGet, Path: "/courts", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *query.CourtFilter) resp.Result[query.Result[domain.Court]] {
			return m.d.ListCourts(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[service.CreateCourtInput, *domain.Court]{
		Method: http.MethodPost, Path: "/courts", Binder: ez.BindJSON, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, in *service.CreateCourtInput) resp.Result[*domain.Court] {
			return m.d.CreateCourt(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Court]{
		Method: http.MethodGet, Path: "/courts/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[*domain.Court] {
			return m.d.GetCourt(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[service.UpdateCourtInput, *domain.Court]{
		Method: http.MethodPut, Path: "/courts/:id", Binder: ez.BindJSON, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, in *service.UpdateCourtInput) resp.Result[*domain.Court] {
			return m.d.UpdateCourt(c.Request.Context(), c.Param("id"), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, action.Empty]{
		Method: http.MethodDelete, Path: "/courts/:id", Binder: ez.BindNone, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[action.Empty] {
			return m.d.DeleteCourt(c.Request.Context(), c.Param("id"))
		},
	})
}

/* ================== cases ================== */

type caseModule struct{ d *action.Dispatcher }

func (m caseModule) MountAPI(g Groups) {
	e := ez.New(g.Authed)
	ez.RegisterAction(e, ez.Action[query.CaseFilter, query.Result[domain.CaseView]]{
		Method: http.MethodGet, Path: "/cases", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *query.CaseFilter) resp.Result[query.Result[domain.CaseView]] {
			return m.d.ListCases(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[service.CreateCaseInput, *domain.CaseView]{
		Method: http.MethodPost, Path: "/cases", Binder: ez.BindJSON, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, in *service.CreateCaseInput) resp.Result[*domain.CaseView] {
			return m.d.CreateCase(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.CaseView]{
		Method: http.MethodGet, Path: "/cases/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[*domain.CaseView] {
			return m.d.GetCase(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[service.UpdateCaseInput, *domain.CaseView]{
		Method: http.MethodPut, Path: "/cases/:id", Binder: ez.BindJSON, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, in *service.UpdateCaseInput) resp.Result[*domain.CaseView] {
			return m.d.UpdateCase(c.Request.Context(), c.Param("id"), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, action.Empty]{
		Method: http.MethodDelete, Path: "/cases/:id", Binder: ez.BindNone, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[action.Empty] {
			return m.d.DeleteCase(c.Request.Context(), c.Param("id"))
		},
	})
}

/* ================== hearings ================== */

type hearingModule struct{ d *action.Dispatcher }

func (m hearingModule) MountAPI(g Groups) {
	e := ez.New(g.Authed)
	ez.RegisterAction(e, ez.Action[query.HearingFilter, query.Result[domain.HearingView]]{
		Method: http.MethodGet, Path: "/hearings", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *query.HearingFilter) resp.Result[query.Result[domain.HearingView]] {
			return m.d.ListHearings(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[service.CreateHearingInput, *domain.HearingView]{
		Method: http.MethodPost, Path: "/hearings", Binder: ez.BindJSON, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, in *service.CreateHearingInput) resp.Result[*domain.HearingView] {
			return m.d.CreateHearing(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.HearingView]{
		Method: http.MethodGet, Path: "/hearings/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[*domain.HearingView] {
			return m.d.GetHearing(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[service.UpdateHearingInput, *domain.HearingView]{
		Method: http.MethodPut, Path: "/hearings/:id", Binder: ez.BindJSON, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, in *service.UpdateHearingInput) resp.Result[*domain.HearingView] {
			return m.d.UpdateHearing(c.Request.Context(), c.Param("id"), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, action.Empty]{
		Method: http.MethodDelete, Path: "/hearings/:id", Binder: ez.BindNone, Auth: true, Roles: writers,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[action.Empty] {
			return m.d.DeleteHearing(c.Request.Context(), c.Param("id"))
		},
	})
}

/* ================== dashboard ================== */

type dashboardModule struct{ d *action.Dispatcher }

func (m dashboardModule) MountAPI(g Groups) {
	e := ez.New(g.Authed.Group("/dashboard"))
	ez.RegisterAction(e, ez.Action[struct{}, *service.DashboardStats]{
		Method: http.MethodGet, Path: "/stats", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[*service.DashboardStats] {
			return m.d.DashboardStats(c.Request.Context())
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, []domain.CaseView]{
		Method: http.MethodGet, Path: "/recent-cases", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[[]domain.CaseView] {
			return m.d.RecentCases(c.Request.Context())
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, []domain.HearingView]{
		Method: http.MethodGet, Path: "/upcoming-hearings", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[[]domain.HearingView] {
			return m.d.UpcomingHearings(c.Request.Context())
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, []repo.StatusCount]{
		Method: http.MethodGet, Path: "/status-distribution", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[[]repo.StatusCount] {
			return m.d.CaseStatusDistribution(c.Request.Context())
		},
	})
	ez.RegisterAction(e, ez.Action[action.YearInput, []service.MonthCount]{
		Method: http.MethodGet, Path: "/hearings-by-month", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *action.YearInput) resp.Result[[]service.MonthCount] {
			return m.d.HearingsByMonth(c.Request.Context(), *in)
		},
	})
}

/* ================== admin ================== */

// adminModule 管理端：计数修复、角色调整；分组已要求 admin
type adminModule struct{ d *action.Dispatcher }

func (m adminModule) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g)
	ez.RegisterAction(e, ez.Action[struct{}, service.RecountResult]{
		Method: http.MethodPost, Path: "/lawyers/recount", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[service.RecountResult] {
			return m.d.RecountCaseCounts(c.Request.Context())
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Lawyer]{
		Method: http.MethodPost, Path: "/lawyers/:id/recount", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) resp.Result[*domain.Lawyer] {
			return m.d.RecountLawyer(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[action.RoleInput, *domain.Lawyer]{
		Method: http.MethodPut, Path: "/lawyers/:id/role", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *action.RoleInput) resp.Result[*domain.Lawyer] {
			return m.d.SetLawyerRole(c.Request.Context(), c.Param("id"), *in)
		},
	})
}
