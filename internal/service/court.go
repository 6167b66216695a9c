package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lawdesk/internal/apperr"
	"lawdesk/internal/domain"
	"lawdesk/internal/query"
	"lawdesk/internal/repo"
	"lawdesk/pkg/utils"
)

type CreateCourtInput struct {
	Name     string `json:"name" validate:"required,max=191"`
	Location string `json:"location" validate:"required,max=191"`
}

type UpdateCourtInput struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=191"`
	Location *string `json:"location" validate:"omitnil,min=1,max=191"`
}

const msgCourtTaken = "Court with this name and location already exists"

type CourtService struct {
	store *repo.Store
	log   *zap.Logger
}

func (s *CourtService) List(ctx context.Context, f query.CourtFilter) (query.Result[domain.Court], error) {
	res, err := s.store.Courts.List(ctx, f)
	if err != nil {
		return query.Result[domain.Court]{}, apperr.FromStore("list courts", err)
	}
	return res, nil
}

func (s *CourtService) Get(ctx context.Context, id string) (*domain.Court, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Court")
	}
	c, err := s.store.Courts.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("get court", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Court")
	}
	return c, nil
}

func courtTaken(ctx context.Context, tx *repo.Store, selfID, name, location string) error {
	var n int64
	err := tx.DB().WithContext(ctx).Model(&domain.Court{}).
		Where("name = ? AND location = ? AND id <> ?", name, location, selfID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Duplicate(msgCourtTaken)
	}
	return nil
}

func (s *CourtService) Create(ctx context.Context, in CreateCourtInput) (*domain.Court, error) {
	c := &domain.Court{
		ID:       utils.NewID(),
		Name:     strings.TrimSpace(in.Name),
		Location: strings.TrimSpace(in.Location),
	}
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		if err := courtTaken(ctx, tx, "", c.Name, c.Location); err != nil {
			return err
		}
		return tx.Courts.Create(ctx, c)
	})
	if err != nil {
		return nil, dupAs("create court", err, msgCourtTaken)
	}
	s.log.Info("court created", zap.String("id", c.ID))
	return s.Get(ctx, c.ID)
}

func (s *CourtService) Update(ctx context.Context, id string, in UpdateCourtInput) (*domain.Court, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Court")
	}
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		cur, err := tx.Courts.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.NotFound("Court")
		}
		name, location := cur.Name, cur.Location
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		if in.Location != nil {
			location = strings.TrimSpace(*in.Location)
		}
		if name == cur.Name && location == cur.Location {
			return nil
		}
		if err := courtTaken(ctx, tx, id, name, location); err != nil {
			return err
		}
		_, err = tx.Courts.Update(ctx, id, map[string]any{"name": name, "location": location})
		return err
	})
	if err != nil {
		return nil, dupAs("update court", err, msgCourtTaken)
	}
	s.log.Info("court updated", zap.String("id", id))
	return s.Get(ctx, id)
}

// Delete 案件解除引用并置为 unassigned，同一事务
func (s *CourtService) Delete(ctx context.Context, id string) error {
	if !utils.IsID(id) {
		return apperr.NotFound("Court")
	}
	var unassigned int64
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		ok, err := tx.Courts.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("Court")
		}
		if unassigned, err = tx.Cases.ClearCourt(ctx, id); err != nil {
			return err
		}
		_, err = tx.Courts.Delete(ctx, id)
		return err
	})
	if err != nil {
		return apperr.FromStore("delete court", err)
	}
	s.log.Info("court deleted", zap.String("id", id), zap.Int64("unassignedCases", unassigned))
	return nil
}
