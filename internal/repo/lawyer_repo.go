package repo

import (
	"context"

	"gorm.io/gorm"

	"lawdesk/internal/domain"
	"lawdesk/internal/query"
)

type LawyerRepo struct{ db *gorm.DB }

func (r *LawyerRepo) Create(ctx context.Context, l *domain.Lawyer) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LawyerRepo) FindByID(ctx context.Context, id string) (*domain.Lawyer, error) {
	return first[domain.Lawyer](ctx, r.db, "id = ?", id)
}

func (r *LawyerRepo) FindByEmail(ctx context.Context, email string) (*domain.Lawyer, error) {
	return first[domain.Lawyer](ctx, r.db, "email = ?", email)
}

func (r *LawyerRepo) Exists(ctx context.Context, id string) (bool, error) {
	return exists[domain.Lawyer](ctx, r.db, id)
}

func (r *LawyerRepo) List(ctx context.Context, f query.LawyerFilter) (query.Result[domain.Lawyer], error) {
	plan, err := f.Plan()
	if err != nil {
		return query.Result[domain.Lawyer]{}, err
	}
	return query.Run[domain.Lawyer](ctx, r.db, plan)
}

// Update 部分字段更新；返回受影响行数用于判断是否存在
func (r *LawyerRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Lawyer{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *LawyerRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Lawyer{})
	return res.RowsAffected, res.Error
}

// IncCaseCount 原子 +1
func (r *LawyerRepo) IncCaseCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Lawyer{}).
		Where("id = ?", id).
		UpdateColumn("case_count", gorm.Expr("case_count + ?", 1)).Error
}

// DecCaseCount 原子 -1，不低于 0
func (r *LawyerRepo) DecCaseCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Lawyer{}).
		Where("id = ? AND case_count > 0", id).
		UpdateColumn("case_count", gorm.Expr("case_count - ?", 1)).Error
}

// Recount 按案件表重算单个律师的 caseCount
func (r *LawyerRepo) Recount(ctx context.Context, id string) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.Case{}).Where("lawyer_id = ?", id).Count(&n).Error; err != nil {
		return 0, err
	}
	err := db.Model(&domain.Lawyer{}).Where("id = ?", id).UpdateColumn("case_count", n).Error
	return n, err
}

// RecountAll 全量重算，返回更新的律师数
func (r *LawyerRepo) RecountAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE lawyers SET case_count = (SELECT COUNT(*) FROM cases WHERE cases.lawyer_id = lawyers.id)",
	)
	return res.RowsAffected, res.Error
}

// Refs 批量取摘要，用于案件列表嵌入
func (r *LawyerRepo) Refs(ctx context.Context, ids []string) (map[string]domain.LawyerRef, error) {
	out := map[string]domain.LawyerRef{}
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var refs []domain.LawyerRef
	if err := r.db.WithContext(ctx).Model(&domain.Lawyer{}).
		Select("id", "name", "specialization").
		Where("id IN ?", ids).
		Find(&refs).Error; err != nil {
		return nil, err
	}
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}

func (r *LawyerRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Lawyer{}).Count(&n).Error
	return n, err
}
