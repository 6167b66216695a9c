package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"lawdesk/internal/apperr"
	"lawdesk/internal/core/cache"
	"lawdesk/internal/repo"
)

// TokenIssuer 登录成功后签发会话令牌（*auth.JWTer）
type TokenIssuer interface {
	Issue(uid, role string) (string, error)
}

type Options struct {
	Logger       *zap.Logger
	Cache        cache.Loader
	DashboardTTL time.Duration
	Tokens       TokenIssuer
	Now          func() time.Time
}

// Services 全部业务服务，共享同一个 Store
type Services struct {
	Lawyers   *LawyerService
	Courts    *CourtService
	Cases     *CaseService
	Hearings  *HearingService
	Auth      *AuthService
	Dashboard *DashboardService
}

func New(store *repo.Store, o Options) *Services {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Cache == nil {
		o.Cache = cache.Nop{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Services{
		Lawyers:   &LawyerService{store: store, log: o.Logger.Named("lawyer")},
		Courts:    &CourtService{store: store, log: o.Logger.Named("court")},
		Cases:     &CaseService{store: store, log: o.Logger.Named("case")},
		Hearings:  &HearingService{store: store, log: o.Logger.Named("hearing")},
		Auth:      &AuthService{store: store, log: o.Logger.Named("auth"), tokens: o.Tokens},
		Dashboard: &DashboardService{store: store, log: o.Logger.Named("dashboard"), cache: o.Cache, ttl: o.DashboardTTL, now: o.Now},
	}
}

// dupAs 唯一索引冲突改写为具体提示，其余交给 FromStore 归类
func dupAs(op string, err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *apperr.Error
	if !errors.As(err, &e) && apperr.IsDupKey(err) {
		return apperr.Duplicate(msg)
	}
	return apperr.FromStore(op, err)
}

func strp(s string) *string { return &s }
