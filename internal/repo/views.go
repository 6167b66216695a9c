package repo

import (
	"context"

	"gorm.io/datatypes"

	"lawdesk/internal/domain"
)

// CaseViews 批量嵌入律师/法院摘要；引用已失效的保持为空
func (s *Store) CaseViews(ctx context.Context, cases []domain.Case) ([]domain.CaseView, error) {
	var lawyerIDs, courtIDs []string
	for _, c := range cases {
		if c.LawyerID != nil {
			lawyerIDs = append(lawyerIDs, *c.LawyerID)
		}
		if c.CourtID != nil {
			courtIDs = append(courtIDs, *c.CourtID)
		}
	}
	lawyers, err := s.Lawyers.Refs(ctx, lawyerIDs)
	if err != nil {
		return nil, err
	}
	courts, err := s.Courts.Refs(ctx, courtIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CaseView, 0, len(cases))
	for _, c := range cases {
		if c.HearingIDs == nil {
			c.HearingIDs = datatypes.JSONSlice[string]{}
		}
		v := domain.CaseView{Case: c}
		if c.LawyerID != nil {
			if ref, ok := lawyers[*c.LawyerID]; ok {
				v.Lawyer = &ref
			}
		}
		if c.CourtID != nil {
			if ref, ok := courts[*c.CourtID]; ok {
				v.Court = &ref
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) CaseView(ctx context.Context, c *domain.Case) (*domain.CaseView, error) {
	views, err := s.CaseViews(ctx, []domain.Case{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Store) HearingViews(ctx context.Context, hearings []domain.Hearing) ([]domain.HearingView, error) {
	ids := make([]string, 0, len(hearings))
	for _, h := range hearings {
		ids = append(ids, h.CaseID)
	}
	cases, err := s.Cases.Refs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HearingView, 0, len(hearings))
	for _, h := range hearings {
		v := domain.HearingView{Hearing: h}
		if ref, ok := cases[h.CaseID]; ok {
			v.Case = &ref
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) HearingView(ctx context.Context, h *domain.Hearing) (*domain.HearingView, error) {
	views, err := s.HearingViews(ctx, []domain.Hearing{*h})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
