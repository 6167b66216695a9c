package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lawdesk/internal/apperr"
	"lawdesk/internal/core/cache"
	"lawdesk/internal/domain"
	"lawdesk/internal/repo"
)

const dashboardListSize = 5

type DashboardStats struct {
	TotalCases       int64 `json:"totalCases"`
	ActiveCases      int64 `json:"activeCases"`
	TotalHearings    int64 `json:"totalHearings"`
	UpcomingHearings int64 `json:"upcomingHearings"`
}

type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type DashboardService struct {
	store *repo.Store
	log   *zap.Logger
	cache cache.Loader
	ttl   time.Duration
	now   func() time.Time
}

// today 当天 UTC 零点；“即将开庭”含当天
func (s *DashboardService) today() time.Time {
	n := s.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// Stats 四个统计并行查询，结果按 TTL 缓存（不做主动失效）
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	st, err := cache.GetOrLoadJSON(s.cache, ctx, "lawdesk:dashboard:stats", s.ttl, s.loadStats)
	if err != nil {
		return nil, apperr.FromStore("dashboard stats", err)
	}
	return st, nil
}

func (s *DashboardService) loadStats(ctx context.Context) (*DashboardStats, error) {
	var st DashboardStats
	from := s.today()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalCases, err = s.store.Cases.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.ActiveCases, err = s.store.Cases.Count(gctx, domain.StatusPending)
		return err
	})
	g.Go(func() (err error) {
		st.TotalHearings, err = s.store.Hearings.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.UpcomingHearings, err = s.store.Hearings.CountFrom(gctx, from)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("load dashboard stats", zap.Error(err))
		return nil, err
	}
	return &st, nil
}

func (s *DashboardService) RecentCases(ctx context.Context) ([]domain.CaseView, error) {
	cases, err := s.store.Cases.Recent(ctx, dashboardListSize)
	if err != nil {
		return nil, apperr.FromStore("recent cases", err)
	}
	views, err := s.store.CaseViews(ctx, cases)
	return views, apperr.FromStore("populate cases", err)
}

func (s *DashboardService) UpcomingHearings(ctx context.Context) ([]domain.HearingView, error) {
	hs, err := s.store.Hearings.Upcoming(ctx, s.today(), dashboardListSize)
	if err != nil {
		return nil, apperr.FromStore("upcoming hearings", err)
	}
	views, err := s.store.HearingViews(ctx, hs)
	return views, apperr.FromStore("populate hearings", err)
}

func (s *DashboardService) StatusDistribution(ctx context.Context) ([]repo.StatusCount, error) {
	out, err := s.store.Cases.StatusDistribution(ctx)
	return out, apperr.FromStore("status distribution", err)
}

// HearingsByMonth 某年 12 个月的开庭数量；year<=0 取当年
func (s *DashboardService) HearingsByMonth(ctx context.Context, year int) ([]MonthCount, error) {
	if year <= 0 {
		year = s.now().UTC().Year()
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	dates, err := s.store.Hearings.DatesBetween(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, apperr.FromStore("hearings by month", err)
	}
	out := make([]MonthCount, 12)
	for i := range out {
		out[i].Month = i + 1
	}
	for _, d := range dates {
		out[d.UTC().Month()-1].Count++
	}
	return out, nil
}
