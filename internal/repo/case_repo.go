package repo

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lawdesk/internal/domain"
	"lawdesk/internal/query"
)

type CaseRepo struct{ db *gorm.DB }

func (r *CaseRepo) Create(ctx context.Context, c *domain.Case) error {
	if c.HearingIDs == nil {
		c.HearingIDs = datatypes.JSONSlice[string]{}
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CaseRepo) FindByID(ctx context.Context, id string) (*domain.Case, error) {
	return first[domain.Case](ctx, r.db, "id = ?", id)
}

// FindByIDForUpdate 事务内加行锁读取（sqlite 忽略 FOR UPDATE，靠单写者串行）
func (r *CaseRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Case, error) {
	return first[domain.Case](ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *CaseRepo) FindByNumber(ctx context.Context, number string) (*domain.Case, error) {
	return first[domain.Case](ctx, r.db, "case_number = ?", number)
}

func (r *CaseRepo) Exists(ctx context.Context, id string) (bool, error) {
	return exists[domain.Case](ctx, r.db, id)
}

func (r *CaseRepo) List(ctx context.Context, f query.CaseFilter) (query.Result[domain.Case], error) {
	plan, err := f.Plan()
	if err != nil {
		return query.Result[domain.Case]{}, err
	}
	return query.Run[domain.Case](ctx, r.db, plan)
}

func (r *CaseRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Case{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *CaseRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Case{})
	return res.RowsAffected, res.Error
}

// ClearLawyer 律师删除时批量清空引用并置为 unassigned
func (r *CaseRepo) ClearLawyer(ctx context.Context, lawyerID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Case{}).
		Where("lawyer_id = ?", lawyerID).
		Updates(map[string]any{"lawyer_id": nil, "status": domain.StatusUnassigned})
	return res.RowsAffected, res.Error
}

// ClearCourt 同 ClearLawyer
func (r *CaseRepo) ClearCourt(ctx context.Context, courtID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Case{}).
		Where("court_id = ?", courtID).
		Updates(map[string]any{"court_id": nil, "status": domain.StatusUnassigned})
	return res.RowsAffected, res.Error
}

func (r *CaseRepo) setHearingIDs(ctx context.Context, id string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return r.db.WithContext(ctx).Model(&domain.Case{}).
		Where("id = ?", id).
		Updates(map[string]any{"hearing_ids": datatypes.JSONSlice[string](ids)}).Error
}

// AddHearing 追加听证会 id（已存在则跳过）；需在事务内调用，返回 false 表示案件不存在
func (r *CaseRepo) AddHearing(ctx context.Context, caseID, hearingID string) (bool, error) {
	c, err := r.FindByIDForUpdate(ctx, caseID)
	if err != nil || c == nil {
		return false, err
	}
	if c.HasHearing(hearingID) {
		return true, nil
	}
	return true, r.setHearingIDs(ctx, caseID, append(c.HearingIDs, hearingID))
}

// RemoveHearing 移除听证会 id；需在事务内调用，案件不存在时忽略
func (r *CaseRepo) RemoveHearing(ctx context.Context, caseID, hearingID string) error {
	c, err := r.FindByIDForUpdate(ctx, caseID)
	if err != nil || c == nil {
		return err
	}
	if !c.HasHearing(hearingID) {
		return nil
	}
	kept := make([]string, 0, len(c.HearingIDs))
	for _, h := range c.HearingIDs {
		if h != hearingID {
			kept = append(kept, h)
		}
	}
	return r.setHearingIDs(ctx, caseID, kept)
}

func (r *CaseRepo) Count(ctx context.Context, statuses ...domain.CaseStatus) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&domain.Case{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Count(&n).Error
	return n, err
}

// Recent 最近创建的 n 个案件
func (r *CaseRepo) Recent(ctx context.Context, n int) ([]domain.Case, error) {
	out := []domain.Case{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id").Limit(n).Find(&out).Error
	return out, err
}

type StatusCount struct {
	Status domain.CaseStatus `json:"status"`
	Count  int64             `json:"count"`
}

func (r *CaseRepo) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	out := []StatusCount{}
	err := r.db.WithContext(ctx).Model(&domain.Case{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&out).Error
	return out, err
}

func (r *CaseRepo) Refs(ctx context.Context, ids []string) (map[string]domain.CaseRef, error) {
	out := map[string]domain.CaseRef{}
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var refs []domain.CaseRef
	if err := r.db.WithContext(ctx).Model(&domain.Case{}).
		Select("id", "case_number", "title", "client_name").
		Where("id IN ?", ids).
		Find(&refs).Error; err != nil {
		return nil, err
	}
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}
