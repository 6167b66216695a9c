package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"lawdesk/internal/domain"
	"lawdesk/internal/query"
)

type HearingRepo struct{ db *gorm.DB }

func (r *HearingRepo) Create(ctx context.Context, h *domain.Hearing) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *HearingRepo) FindByID(ctx context.Context, id string) (*domain.Hearing, error) {
	return first[domain.Hearing](ctx, r.db, "id = ?", id)
}

// List caseNumber 先解析成 caseId；案号不存在时返回空页
func (r *HearingRepo) List(ctx context.Context, f query.HearingFilter) (query.Result[domain.Hearing], error) {
	plan, err := f.Plan()
	if err != nil {
		return query.Result[domain.Hearing]{}, err
	}
	if num := strings.TrimSpace(f.CaseNumber); num != "" {
		c, err := first[domain.Case](ctx, r.db, "case_number = ?", num)
		if err != nil {
			return query.Result[domain.Hearing]{}, err
		}
		if c == nil {
			plan.Empty = true
		} else {
			caseID := c.ID
			plan = plan.And(func(db *gorm.DB) *gorm.DB { return db.Where("case_id = ?", caseID) })
		}
	}
	return query.Run[domain.Hearing](ctx, r.db, plan)
}

func (r *HearingRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Hearing{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *HearingRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Hearing{})
	return res.RowsAffected, res.Error
}

// DeleteByCase 案件删除时级联
func (r *HearingRepo) DeleteByCase(ctx context.Context, caseID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("case_id = ?", caseID).Delete(&domain.Hearing{})
	return res.RowsAffected, res.Error
}

func (r *HearingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Hearing{}).Count(&n).Error
	return n, err
}

func (r *HearingRepo) CountFrom(ctx context.Context, from time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Hearing{}).Where("date >= ?", from.UTC()).Count(&n).Error
	return n, err
}

// Upcoming 从 from 起最近的 n 场
func (r *HearingRepo) Upcoming(ctx context.Context, from time.Time, n int) ([]domain.Hearing, error) {
	out := []domain.Hearing{}
	err := r.db.WithContext(ctx).
		Where("date >= ?", from.UTC()).
		Order("date").Order("id").
		Limit(n).
		Find(&out).Error
	return out, err
}

// DatesBetween [from, to) 内的全部开庭时间，按月分桶在上层做（各方言的日期函数不通用）
func (r *HearingRepo) DatesBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).Model(&domain.Hearing{}).
		Where("date >= ? AND date < ?", from.UTC(), to.UTC()).
		Pluck("date", &out).Error
	return out, err
}
