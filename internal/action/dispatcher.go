// Package action 是调用方（HTTP 层或其他进程内调用者）进入业务核心的唯一入口：
// 校验入参、调用服务、把结果和错误统一成信封。
package action

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"lawdesk/internal/apperr"
	"lawdesk/internal/core/logger"
	"lawdesk/internal/domain"
	"lawdesk/internal/query"
	"lawdesk/internal/repo"
	"lawdesk/internal/service"
	resp "lawdesk/internal/transport/http/response"
)

type Dispatcher struct {
	svc      *service.Services
	validate *Validator
	log      *zap.Logger
	total    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New reg 为 nil 时不上报指标
func New(svc *service.Services, l *zap.Logger, reg prometheus.Registerer) *Dispatcher {
	if l == nil {
		l = zap.NewNop()
	}
	d := &Dispatcher{
		svc:      svc,
		validate: NewValidator(),
		log:      l.Named("action"),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "lawdesk_actions_total", Help: "Count of dispatched actions by outcome"},
			[]string{"action", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lawdesk_action_duration_seconds",
				Help:    "Latency of dispatched actions",
				Buckets: prometheus.DefBuckets,
			}, []string{"action"},
		),
	}
	if reg != nil {
		reg.MustRegister(d.total, d.latency)
	}
	return d
}

// run 校验 -> 执行 -> 信封；业务错误不会以 panic / error 形式越过这里
func run[I any, O any](ctx context.Context, d *Dispatcher, name string, in *I, fn func(context.Context) (O, error)) (out resp.Result[O]) {
	start := time.Now()
	log := logger.For(ctx, d.log)
	defer func() {
		if p := recover(); p != nil {
			log.Error("action panic", zap.String("action", name), zap.Any("panic", p), zap.Stack("stack"))
			out = resp.Fail[O](apperr.Internal("panic", nil))
		}
		d.total.WithLabelValues(name, out.Outcome()).Inc()
		d.latency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	if in != nil {
		if err := d.validate.Struct(in); err != nil {
			log.Debug("action rejected", zap.String("action", name), zap.Error(err))
			return resp.Fail[O](err)
		}
	}
	v, err := fn(ctx)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindInternal, apperr.KindTransient:
			log.Error("action failed", zap.String("action", name), zap.Error(err), zap.NamedError("cause", unwrapAll(err)))
		default:
			log.Info("action refused", zap.String("action", name), zap.Error(err))
		}
		return resp.Fail[O](err)
	}
	return resp.OK(v)
}

func unwrapAll(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok || u.Unwrap() == nil {
			return err
		}
		err = u.Unwrap()
	}
}

// Empty 无返回数据的动作
type Empty struct{}

/* ================== Cases ================== */

func (d *Dispatcher) ListCases(ctx context.Context, f query.CaseFilter) resp.Result[query.Result[domain.CaseView]] {
	return run(ctx, d, "listCases", &f, func(ctx context.Context) (query.Result[domain.CaseView], error) {
		return d.svc.Cases.List(ctx, f)
	})
}

func (d *Dispatcher) GetCase(ctx context.Context, id string) resp.Result[*domain.CaseView] {
	return run[struct{}](ctx, d, "getCase", nil, func(ctx context.Context) (*domain.CaseView, error) {
		return d.svc.Cases.Get(ctx, id)
	})
}

func (d *Dispatcher) CreateCase(ctx context.Context, in service.CreateCaseInput) resp.Result[*domain.CaseView] {
	return run(ctx, d, "createCase", &in, func(ctx context.Context) (*domain.CaseView, error) {
		return d.svc.Cases.Create(ctx, in)
	})
}

func (d *Dispatcher) UpdateCase(ctx context.Context, id string, in service.UpdateCaseInput) resp.Result[*domain.CaseView] {
	return run(ctx, d, "updateCase", &in, func(ctx context.Context) (*domain.CaseView, error) {
		return d.svc.Cases.Update(ctx, id, in)
	})
}

func (d *Dispatcher) DeleteCase(ctx context.Context, id string) resp.Result[Empty] {
	return run[struct{}](ctx, d, "deleteCase", nil, func(ctx context.Context) (Empty, error) {
		return Empty{}, d.svc.Cases.Delete(ctx, id)
	})
}

/* ================== Hearings ================== */

func (d *Dispatcher) ListHearings(ctx context.Context, f query.HearingFilter) resp.Result[query.Result[domain.HearingView]] {
	return run(ctx, d, "listHearings", &f, func(ctx context.Context) (query.Result[domain.HearingView], error) {
		return d.svc.Hearings.List(ctx, f)
	})
}

func (d *Dispatcher) GetHearing(ctx context.Context, id string) resp.Result[*domain.HearingView] {
	return run[struct{}](ctx, d, "getHearing", nil, func(ctx context.Context) (*domain.HearingView, error) {
		return d.svc.Hearings.Get(ctx, id)
	})
}

func (d *Dispatcher) CreateHearing(ctx context.Context, in service.CreateHearingInput) resp.Result[*domain.HearingView] {
	return run(ctx, d, "createHearing", &in, func(ctx context.Context) (*domain.HearingView, error) {
		return d.svc.Hearings.Create(ctx, in)
	})
}

func (d *Dispatcher) UpdateHearing(ctx context.Context, id string, in service.UpdateHearingInput) resp.Result[*domain.HearingView] {
	return run(ctx, d, "updateHearing", &in, func(ctx context.Context) (*domain.HearingView, error) {
		return d.svc.Hearings.Update(ctx, id, in)
	})
}

func (d *Dispatcher) DeleteHearing(ctx context.Context, id string) resp.Result[Empty] {
	return run[struct{}](ctx, d, "deleteHearing", nil, func(ctx context.Context) (Empty, error) {
		return Empty{}, d.svc.Hearings.Delete(ctx, id)
	})
}

/* ================== Lawyers ================== */

func (d *Dispatcher) ListLawyers(ctx context.Context, f query.LawyerFilter) resp.Result[query.Result[domain.Lawyer]] {
	return run(ctx, d, "listLawyers", &f, func(ctx context.Context) (query.Result[domain.Lawyer], error) {
		return d.svc.Lawyers.List(ctx, f)
	})
}

func (d *Dispatcher) GetLawyer(ctx context.Context, id string) resp.Result[*domain.Lawyer] {
	return run[struct{}](ctx, d, "getLawyer", nil, func(ctx context.Context) (*domain.Lawyer, error) {
		return d.svc.Lawyers.Get(ctx, id)
	})
}

type EmailInput struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

func (d *Dispatcher) GetLawyerByEmail(ctx context.Context, in EmailInput) resp.Result[*domain.Lawyer] {
	return run(ctx, d, "getLawyerByEmail", &in, func(ctx context.Context) (*domain.Lawyer, error) {
		return d.svc.Lawyers.GetByEmail(ctx, in.Email)
	})
}

func (d *Dispatcher) CreateLawyer(ctx context.Context, in service.CreateLawyerInput) resp.Result[*domain.Lawyer] {
	return run(ctx, d, "createLawyer", &in, func(ctx context.Context) (*domain.Lawyer, error) {
		return d.svc.Lawyers.Create(ctx, in)
	})
}

func (d *Dispatcher) UpdateLawyer(ctx context.Context, id string, in service.UpdateLawyerInput) resp.Result[*domain.Lawyer] {
	return run(ctx, d, "updateLawyer", &in, func(ctx context.Context) (*domain.Lawyer, error) {
		return d.svc.Lawyers.Update(ctx, id, in)
	})
}

func (d *Dispatcher) DeleteLawyer(ctx context.Context, id string) resp.Result[Empty] {
	return run[struct{}](ctx, d, "deleteLawyer", nil, func(ctx context.Context) (Empty, error) {
		return Empty{}, d.svc.Lawyers.Delete(ctx, id)
	})
}

type RoleInput struct {
	Role domain.Role `json:"role" validate:"required,oneof=admin lawyer guest"`
}

func (d *Dispatcher) SetLawyerRole(ctx context.Context, id string, in RoleInput) resp.Result[*domain.Lawyer] {
	return run(ctx, d, "setLawyerRole", &in, func(ctx context.Context) (*domain.Lawyer, error) {
		return d.svc.Lawyers.SetRole(ctx, id, in.Role)
	})
}

func (d *Dispatcher) RecountLawyer(ctx context.Context, id string) resp.Result[*domain.Lawyer] {
	return run[struct{}](ctx, d, "recountLawyer", nil, func(ctx context.Context) (*domain.Lawyer, error) {
		return d.svc.Lawyers.Recount(ctx, id)
	})
}

func (d *Dispatcher) RecountCaseCounts(ctx context.Context) resp.Result[service.RecountResult] {
	return run[struct{}](ctx, d, "recountCaseCounts", nil, func(ctx context.Context) (service.RecountResult, error) {
		return d.svc.Lawyers.RecountAll(ctx)
	})
}

/* ================== Courts ================== */

func (d *Dispatcher) ListCourts(ctx context.Context, f query.CourtFilter) resp.Result[query.Result[domain.Court]] {
	return run(ctx, d, "listCourts", &f, func(ctx context.Context) (query.Result[domain.Court], error) {
		return d.svc.Courts.List(ctx, f)
	})
}

func (d *Dispatcher) GetCourt(ctx context.Context, id string) resp.Result[*domain.Court] {
	return run[struct{}](ctx, d, "getCourt", nil, func(ctx context.Context) (*domain.Court, error) {
		return d.svc.Courts.Get(ctx, id)
	})
}

func (d *Dispatcher) CreateCourt(ctx context.Context, in service.CreateCourtInput) resp.Result[*domain.Court] {
	return run(ctx, d, "createCourt", &in, func(ctx context.Context) (*domain.Court, error) {
		return d.svc.Courts.Create(ctx, in)
	})
}

func (d *Dispatcher) UpdateCourt(ctx context.Context, id string, in service.UpdateCourtInput) resp.Result[*domain.Court] {
	return run(ctx, d, "updateCourt", &in, func(ctx context.Context) (*domain.Court, error) {
		return d.svc.Courts.Update(ctx, id, in)
	})
}

func (d *Dispatcher) DeleteCourt(ctx context.Context, id string) resp.Result[Empty] {
	return run[struct{}](ctx, d, "deleteCourt", nil, func(ctx context.Context) (Empty, error) {
		return Empty{}, d.svc.Courts.Delete(ctx, id)
	})
}

/* ================== Auth ================== */

func (d *Dispatcher) SignUp(ctx context.Context, in service.SignUpInput) resp.Result[*service.Session] {
	return run(ctx, d, "signUp", &in, func(ctx context.Context) (*service.Session, error) {
		return d.svc.Auth.SignUp(ctx, in)
	})
}

func (d *Dispatcher) SignIn(ctx context.Context, in service.SignInInput) resp.Result[*service.Session] {
	return run(ctx, d, "signIn", &in, func(ctx context.Context) (*service.Session, error) {
		return d.svc.Auth.SignIn(ctx, in)
	})
}

func (d *Dispatcher) OAuthSignIn(ctx context.Context, in service.OAuthSignInInput) resp.Result[*domain.Lawyer] {
	return run(ctx, d, "oauthSignIn", &in, func(ctx context.Context) (*domain.Lawyer, error) {
		return d.svc.Auth.OAuthSignIn(ctx, in)
	})
}

func (d *Dispatcher) Me(ctx context.Context, uid string) resp.Result[*domain.Lawyer] {
	return run[struct{}](ctx, d, "me", nil, func(ctx context.Context) (*domain.Lawyer, error) {
		return d.svc.Auth.Me(ctx, uid)
	})
}

/* ================== Dashboard ================== */

func (d *Dispatcher) DashboardStats(ctx context.Context) resp.Result[*service.DashboardStats] {
	return run[struct{}](ctx, d, "dashboardStats", nil, d.svc.Dashboard.Stats)
}

func (d *Dispatcher) RecentCases(ctx context.Context) resp.Result[[]domain.CaseView] {
	return run[struct{}](ctx, d, "recentCases", nil, d.svc.Dashboard.RecentCases)
}

func (d *Dispatcher) UpcomingHearings(ctx context.Context) resp.Result[[]domain.HearingView] {
	return run[struct{}](ctx, d, "upcomingHearings", nil, d.svc.Dashboard.UpcomingHearings)
}

func (d *Dispatcher) CaseStatusDistribution(ctx context.Context) resp.Result[[]repo.StatusCount] {
	return run[struct{}](ctx, d, "caseStatusDistribution", nil, d.svc.Dashboard.StatusDistribution)
}

type YearInput struct {
	Year int `form:"year" json:"year" validate:"omitempty,min=1900,max=3000"`
}

func (d *Dispatcher) HearingsByMonth(ctx context.Context, in YearInput) resp.Result[[]service.MonthCount] {
	return run(ctx, d, "hearingsByMonth", &in, func(ctx context.Context) ([]service.MonthCount, error) {
		return d.svc.Dashboard.HearingsByMonth(ctx, in.Year)
	})
}
