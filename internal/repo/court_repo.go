package repo

import (
	"context"

	"gorm.io/gorm"

	"lawdesk/internal/domain"
	"lawdesk/internal/query"
)

type CourtRepo struct{ db *gorm.DB }

func (r *CourtRepo) Create(ctx context.Context, c *domain.Court) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CourtRepo) FindByID(ctx context.Context, id string) (*domain.Court, error) {
	return first[domain.Court](ctx, r.db, "id = ?", id)
}

func (r *CourtRepo) Exists(ctx context.Context, id string) (bool, error) {
	return exists[domain.Court](ctx, r.db, id)
}

func (r *CourtRepo) List(ctx context.Context, f query.CourtFilter) (query.Result[domain.Court], error) {
	plan, err := f.Plan()
	if err != nil {
		return query.Result[domain.Court]{}, err
	}
	return query.Run[domain.Court](ctx, r.db, plan)
}

func (r *CourtRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Court{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *CourtRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Court{})
	return res.RowsAffected, res.Error
}

func (r *CourtRepo) Refs(ctx context.Context, ids []string) (map[string]domain.CourtRef, error) {
	out := map[string]domain.CourtRef{}
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var refs []domain.CourtRef
	if err := r.db.WithContext(ctx).Model(&domain.Court{}).
		Select("id", "name", "location").
		Where("id IN ?", ids).
		Find(&refs).Error; err != nil {
		return nil, err
	}
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}
