package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"lawdesk/internal/apperr"
	"lawdesk/internal/domain"
	"lawdesk/internal/query"
	"lawdesk/internal/repo"
	"lawdesk/pkg/utils"
)

// CreateHearingInput caseId 与 caseNumber 二选一，caseId 优先
type CreateHearingInput struct {
	CaseID      string `json:"caseId" validate:"required_without=CaseNumber,omitempty,objectid"`
	CaseNumber  string `json:"caseNumber" validate:"required_without=CaseID,omitempty,casenumber"`
	Date        string `json:"date" validate:"required,datestr"`
	Description string `json:"description" validate:"max=1000"`
}

type UpdateHearingInput struct {
	CaseID      *string `json:"caseId" validate:"omitnil,objectid"`
	CaseNumber  *string `json:"caseNumber" validate:"omitnil,casenumber"`
	Date        *string `json:"date" validate:"omitnil,datestr"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
}

type HearingService struct {
	store *repo.Store
	log   *zap.Logger
}

func (s *HearingService) List(ctx context.Context, f query.HearingFilter) (query.Result[domain.HearingView], error) {
	res, err := s.store.Hearings.List(ctx, f)
	if err != nil {
		return query.Result[domain.HearingView]{}, apperr.FromStore("list hearings", err)
	}
	views, err := s.store.HearingViews(ctx, res.Items)
	if err != nil {
		return query.Result[domain.HearingView]{}, apperr.FromStore("populate hearings", err)
	}
	return query.Result[domain.HearingView]{Items: views, IsNext: res.IsNext}, nil
}

func (s *HearingService) Get(ctx context.Context, id string) (*domain.HearingView, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Hearing")
	}
	h, err := s.store.Hearings.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("get hearing", err)
	}
	if h == nil {
		return nil, apperr.NotFound("Hearing")
	}
	v, err := s.store.HearingView(ctx, h)
	return v, apperr.FromStore("populate hearing", err)
}

// resolveCase 按 id 或案号找到目标案件 id；找不到是引用错误
func resolveCase(ctx context.Context, tx *repo.Store, caseID, caseNumber string) (string, error) {
	if caseID = strings.TrimSpace(caseID); caseID != "" {
		return caseID, nil
	}
	c, err := tx.Cases.FindByNumber(ctx, strings.TrimSpace(caseNumber))
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", apperr.Reference(msgCaseMissing)
	}
	return c.ID, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, _, err := query.ParseTime(s)
	if err != nil {
		return time.Time{}, apperr.Field(field, "must be a valid date")
	}
	return t, nil
}

// Create 新建听证会并追加到案件 hearingIds，同一事务
func (s *HearingService) Create(ctx context.Context, in CreateHearingInput) (*domain.HearingView, error) {
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	h := &domain.Hearing{ID: utils.NewID(), Date: date, Description: in.Description}
	err = s.store.Transaction(ctx, func(tx *repo.Store) error {
		caseID, err := resolveCase(ctx, tx, in.CaseID, in.CaseNumber)
		if err != nil {
			return err
		}
		h.CaseID = caseID
		if err := tx.Hearings.Create(ctx, h); err != nil {
			return err
		}
		ok, err := tx.Cases.AddHearing(ctx, caseID, h.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Reference(msgCaseMissing)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore("create hearing", err)
	}
	s.log.Info("hearing created", zap.String("id", h.ID), zap.String("caseId", h.CaseID))
	return s.Get(ctx, h.ID)
}

// Update 换案件时从旧案件移除、追加到新案件，同一事务
func (s *HearingService) Update(ctx context.Context, id string, in UpdateHearingInput) (*domain.HearingView, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Hearing")
	}
	fields := map[string]any{}
	if in.Date != nil {
		date, err := parseDate("date", *in.Date)
		if err != nil {
			return nil, err
		}
		fields["date"] = date
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}

	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		cur, err := tx.Hearings.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.NotFound("Hearing")
		}
		if in.CaseID != nil || in.CaseNumber != nil {
			var caseID, caseNumber string
			if in.CaseID != nil {
				caseID = *in.CaseID
			}
			if in.CaseNumber != nil {
				caseNumber = *in.CaseNumber
			}
			target, err := resolveCase(ctx, tx, caseID, caseNumber)
			if err != nil {
				return err
			}
			if target != cur.CaseID {
				ok, err := tx.Cases.AddHearing(ctx, target, id)
				if err != nil {
					return err
				}
				if !ok {
					return apperr.Reference(msgCaseMissing)
				}
				if err := tx.Cases.RemoveHearing(ctx, cur.CaseID, id); err != nil {
					return err
				}
				fields["case_id"] = target
			}
		}
		if len(fields) == 0 {
			return nil
		}
		_, err = tx.Hearings.Update(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, apperr.FromStore("update hearing", err)
	}
	s.log.Info("hearing updated", zap.String("id", id))
	return s.Get(ctx, id)
}

// Delete 先从案件 hearingIds 移除再删除，同一事务
func (s *HearingService) Delete(ctx context.Context, id string) error {
	if !utils.IsID(id) {
		return apperr.NotFound("Hearing")
	}
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		cur, err := tx.Hearings.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.NotFound("Hearing")
		}
		if err := tx.Cases.RemoveHearing(ctx, cur.CaseID, id); err != nil {
			return err
		}
		_, err = tx.Hearings.Delete(ctx, id)
		return err
	})
	if err != nil {
		return apperr.FromStore("delete hearing", err)
	}
	s.log.Info("hearing deleted", zap.String("id", id))
	return nil
}
