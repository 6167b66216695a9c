package service

import (
	"context"

	"go.uber.org/zap"

	"lawdesk/internal/apperr"
	"lawdesk/internal/domain"
	"lawdesk/internal/query"
	"lawdesk/internal/repo"
	"lawdesk/pkg/utils"
)

type CreateCaseInput struct {
	CaseNumber string            `json:"caseNumber" validate:"required,casenumber"`
	Title      string            `json:"title" validate:"required,max=255"`
	ClientName string            `json:"clientName" validate:"required,max=255"`
	LawyerID   string            `json:"lawyerId" validate:"required,objectid"`
	CourtID    string            `json:"courtId" validate:"required,objectid"`
	Status     domain.CaseStatus `json:"status" validate:"omitempty,oneof=pending disposed unassigned"`
}

// UpdateCaseInput nil 字段不修改
type UpdateCaseInput struct {
	CaseNumber *string            `json:"caseNumber" validate:"omitnil,casenumber"`
	Title      *string            `json:"title" validate:"omitnil,min=1,max=255"`
	ClientName *string            `json:"clientName" validate:"omitnil,min=1,max=255"`
	LawyerID   *string            `json:"lawyerId" validate:"omitnil,objectid"`
	CourtID    *string            `json:"courtId" validate:"omitnil,objectid"`
	Status     *domain.CaseStatus `json:"status" validate:"omitnil,oneof=pending disposed unassigned"`
}

const (
	msgCaseNumberTaken = "Case number already exists"
	msgLawyerMissing   = "Lawyer not found"
	msgCourtMissing    = "Court not found"
	msgCaseMissing     = "Case not found"
)

type CaseService struct {
	store *repo.Store
	log   *zap.Logger
}

func (s *CaseService) List(ctx context.Context, f query.CaseFilter) (query.Result[domain.CaseView], error) {
	res, err := s.store.Cases.List(ctx, f)
	if err != nil {
		return query.Result[domain.CaseView]{}, apperr.FromStore("list cases", err)
	}
	views, err := s.store.CaseViews(ctx, res.Items)
	if err != nil {
		return query.Result[domain.CaseView]{}, apperr.FromStore("populate cases", err)
	}
	return query.Result[domain.CaseView]{Items: views, IsNext: res.IsNext}, nil
}

func (s *CaseService) Get(ctx context.Context, id string) (*domain.CaseView, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Case")
	}
	c, err := s.store.Cases.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("get case", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Case")
	}
	v, err := s.store.CaseView(ctx, c)
	return v, apperr.FromStore("populate case", err)
}

// checkRefs 律师/法院必须存在
func checkRefs(ctx context.Context, tx *repo.Store, lawyerID, courtID *string) error {
	if lawyerID != nil {
		ok, err := tx.Lawyers.Exists(ctx, *lawyerID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Reference(msgLawyerMissing)
		}
	}
	if courtID != nil {
		ok, err := tx.Courts.Exists(ctx, *courtID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Reference(msgCourtMissing)
		}
	}
	return nil
}

// Create 插入案件并给律师 caseCount 原子 +1，同一事务
func (s *CaseService) Create(ctx context.Context, in CreateCaseInput) (*domain.CaseView, error) {
	if in.Status == "" {
		in.Status = domain.StatusPending
	}
	c := &domain.Case{
		ID:         utils.NewID(),
		CaseNumber: in.CaseNumber,
		Title:      in.Title,
		ClientName: in.ClientName,
		LawyerID:   strp(in.LawyerID),
		CourtID:    strp(in.CourtID),
		Status:     in.Status,
	}
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		dup, err := tx.Cases.FindByNumber(ctx, in.CaseNumber)
		if err != nil {
			return err
		}
		if dup != nil {
			return apperr.Duplicate(msgCaseNumberTaken)
		}
		if err := checkRefs(ctx, tx, c.LawyerID, c.CourtID); err != nil {
			return err
		}
		if err := tx.Cases.Create(ctx, c); err != nil {
			return err
		}
		return tx.Lawyers.IncCaseCount(ctx, in.LawyerID)
	})
	if err != nil {
		return nil, dupAs("create case", err, msgCaseNumberTaken)
	}
	s.log.Info("case created", zap.String("id", c.ID), zap.String("caseNumber", c.CaseNumber))
	return s.Get(ctx, c.ID)
}

// Update 部分更新；换律师时旧律师 -1（不低于 0）、新律师 +1，与更新同一事务
func (s *CaseService) Update(ctx context.Context, id string, in UpdateCaseInput) (*domain.CaseView, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Case")
	}
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		cur, err := tx.Cases.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.NotFound("Case")
		}

		fields := map[string]any{}
		if in.CaseNumber != nil && *in.CaseNumber != cur.CaseNumber {
			dup, err := tx.Cases.FindByNumber(ctx, *in.CaseNumber)
			if err != nil {
				return err
			}
			if dup != nil {
				return apperr.Duplicate(msgCaseNumberTaken)
			}
			fields["case_number"] = *in.CaseNumber
		}
		if in.Title != nil {
			fields["title"] = *in.Title
		}
		if in.ClientName != nil {
			fields["client_name"] = *in.ClientName
		}
		if in.Status != nil {
			fields["status"] = *in.Status
		}

		var newLawyer, newCourt *string
		if in.LawyerID != nil && (cur.LawyerID == nil || *cur.LawyerID != *in.LawyerID) {
			newLawyer = in.LawyerID
			fields["lawyer_id"] = *in.LawyerID
		}
		if in.CourtID != nil && (cur.CourtID == nil || *cur.CourtID != *in.CourtID) {
			newCourt = in.CourtID
			fields["court_id"] = *in.CourtID
		}
		if err := checkRefs(ctx, tx, newLawyer, newCourt); err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if _, err := tx.Cases.Update(ctx, id, fields); err != nil {
			return err
		}
		if newLawyer != nil {
			if cur.LawyerID != nil {
				if err := tx.Lawyers.DecCaseCount(ctx, *cur.LawyerID); err != nil {
					return err
				}
			}
			return tx.Lawyers.IncCaseCount(ctx, *newLawyer)
		}
		return nil
	})
	if err != nil {
		return nil, dupAs("update case", err, msgCaseNumberTaken)
	}
	s.log.Info("case updated", zap.String("id", id))
	return s.Get(ctx, id)
}

// Delete 级联删除听证会，律师 caseCount -1，同一事务
func (s *CaseService) Delete(ctx context.Context, id string) error {
	if !utils.IsID(id) {
		return apperr.NotFound("Case")
	}
	var removed int64
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		cur, err := tx.Cases.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.NotFound("Case")
		}
		if removed, err = tx.Hearings.DeleteByCase(ctx, id); err != nil {
			return err
		}
		if cur.LawyerID != nil {
			if err := tx.Lawyers.DecCaseCount(ctx, *cur.LawyerID); err != nil {
				return err
			}
		}
		_, err = tx.Cases.Delete(ctx, id)
		return err
	})
	if err != nil {
		return apperr.FromStore("delete case", err)
	}
	s.log.Info("case deleted", zap.String("id", id), zap.Int64("hearings", removed))
	return nil
}
