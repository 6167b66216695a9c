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

type CreateLawyerInput struct {
	Name           string                `json:"name" validate:"required,max=100"`
	Email          string                `json:"email" validate:"required,email,max=191"`
	Password       string                `json:"password" validate:"omitempty,password"`
	BarNumber      *string               `json:"barNumber" validate:"omitnil,max=64"`
	Specialization domain.Specialization `json:"specialization" validate:"required,specialization"`
	Role           domain.Role           `json:"role" validate:"required,oneof=admin lawyer guest"`
}

// UpdateLawyerInput 角色只能通过管理端修改
type UpdateLawyerInput struct {
	Name           *string                `json:"name" validate:"omitnil,min=1,max=100"`
	Email          *string                `json:"email" validate:"omitnil,email,max=191"`
	BarNumber      *string                `json:"barNumber" validate:"omitnil,max=64"`
	Specialization *domain.Specialization `json:"specialization" validate:"omitnil,specialization"`
}

const (
	msgEmailTaken     = "Email already exists"
	msgBarNumberTaken = "Bar number already exists"
)

type LawyerService struct {
	store *repo.Store
	log   *zap.Logger
}

func (s *LawyerService) List(ctx context.Context, f query.LawyerFilter) (query.Result[domain.Lawyer], error) {
	res, err := s.store.Lawyers.List(ctx, f)
	if err != nil {
		return query.Result[domain.Lawyer]{}, apperr.FromStore("list lawyers", err)
	}
	return res, nil
}

func (s *LawyerService) Get(ctx context.Context, id string) (*domain.Lawyer, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Lawyer")
	}
	l, err := s.store.Lawyers.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("get lawyer", err)
	}
	if l == nil {
		return nil, apperr.NotFound("Lawyer")
	}
	return l, nil
}

func (s *LawyerService) GetByEmail(ctx context.Context, email string) (*domain.Lawyer, error) {
	l, err := s.store.Lawyers.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, apperr.FromStore("get lawyer by email", err)
	}
	if l == nil {
		return nil, apperr.NotFound("Lawyer")
	}
	return l, nil
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// checkUnique email / barNumber 唯一；selfID 为更新时的自身 id
func checkUnique(ctx context.Context, tx *repo.Store, selfID string, email *string, barNumber *string) error {
	if email != nil {
		other, err := tx.Lawyers.FindByEmail(ctx, *email)
		if err != nil {
			return err
		}
		if other != nil && other.ID != selfID {
			return apperr.Duplicate(msgEmailTaken)
		}
	}
	if barNumber != nil && *barNumber != "" {
		var n int64
		err := tx.DB().WithContext(ctx).Model(&domain.Lawyer{}).
			Where("bar_number = ? AND id <> ?", *barNumber, selfID).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Duplicate(msgBarNumberTaken)
		}
	}
	return nil
}

// lawyerDup 区分是哪个唯一键冲突
func lawyerDup(op string, err error) error {
	if err != nil && apperr.IsDupKey(err) && strings.Contains(strings.ToLower(err.Error()), "bar_number") {
		return apperr.Duplicate(msgBarNumberTaken)
	}
	return dupAs(op, err, msgEmailTaken)
}

// Create 可选密码：提供时同一事务内建 credentials 账号
func (s *LawyerService) Create(ctx context.Context, in CreateLawyerInput) (*domain.Lawyer, error) {
	email := normalizeEmail(in.Email)
	bar := in.BarNumber
	if bar != nil && strings.TrimSpace(*bar) == "" {
		bar = nil
	}
	l := &domain.Lawyer{
		ID:             utils.NewID(),
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		Specialization: in.Specialization,
		BarNumber:      bar,
		Role:           in.Role,
	}
	var hash string
	if in.Password != "" {
		var err error
		if hash, err = utils.HashPassword(in.Password); err != nil {
			return nil, apperr.Internal("hash password failed", err)
		}
	}
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		if err := checkUnique(ctx, tx, "", &email, bar); err != nil {
			return err
		}
		if err := tx.Lawyers.Create(ctx, l); err != nil {
			return err
		}
		if hash == "" {
			return nil
		}
		return tx.Accounts.Create(ctx, &domain.Account{
			ID:                utils.NewID(),
			UserID:            l.ID,
			Provider:          domain.ProviderCredentials,
			ProviderAccountID: email,
			Password:          hash,
		})
	})
	if err != nil {
		return nil, lawyerDup("create lawyer", err)
	}
	s.log.Info("lawyer created", zap.String("id", l.ID), zap.String("role", string(l.Role)))
	return s.Get(ctx, l.ID)
}

func (s *LawyerService) Update(ctx context.Context, id string, in UpdateLawyerInput) (*domain.Lawyer, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Lawyer")
	}
	fields := map[string]any{}
	var email, bar *string
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email = strp(normalizeEmail(*in.Email))
		fields["email"] = *email
	}
	if in.BarNumber != nil {
		if b := strings.TrimSpace(*in.BarNumber); b == "" {
			fields["bar_number"] = nil
		} else {
			bar = &b
			fields["bar_number"] = b
		}
	}
	if in.Specialization != nil {
		fields["specialization"] = *in.Specialization
	}

	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		ok, err := tx.Lawyers.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("Lawyer")
		}
		if len(fields) == 0 {
			return nil
		}
		if err := checkUnique(ctx, tx, id, email, bar); err != nil {
			return err
		}
		if _, err = tx.Lawyers.Update(ctx, id, fields); err != nil {
			return err
		}
		if email == nil {
			return nil
		}
		// 密码账号以邮箱为 providerAccountId，跟随变更
		_, err = tx.Accounts.RenameCredentials(ctx, id, *email)
		return err
	})
	if err != nil {
		return nil, lawyerDup("update lawyer", err)
	}
	s.log.Info("lawyer updated", zap.String("id", id))
	return s.Get(ctx, id)
}

// SetRole 管理端修改角色
func (s *LawyerService) SetRole(ctx context.Context, id string, role domain.Role) (*domain.Lawyer, error) {
	if !role.Valid() {
		return nil, apperr.Field("role", "must be one of admin, lawyer, guest")
	}
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Lawyer")
	}
	n, err := s.store.Lawyers.Update(ctx, id, map[string]any{"role": role})
	if err != nil {
		return nil, apperr.FromStore("set role", err)
	}
	if n == 0 {
		return nil, apperr.NotFound("Lawyer")
	}
	s.log.Info("lawyer role changed", zap.String("id", id), zap.String("role", string(role)))
	return s.Get(ctx, id)
}

// Delete 案件解除引用并置为 unassigned，删除账号与律师，同一事务；不删除任何案件
func (s *LawyerService) Delete(ctx context.Context, id string) error {
	if !utils.IsID(id) {
		return apperr.NotFound("Lawyer")
	}
	var unassigned int64
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		ok, err := tx.Lawyers.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("Lawyer")
		}
		if unassigned, err = tx.Cases.ClearLawyer(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Accounts.DeleteByUser(ctx, id); err != nil {
			return err
		}
		_, err = tx.Lawyers.Delete(ctx, id)
		return err
	})
	if err != nil {
		return apperr.FromStore("delete lawyer", err)
	}
	s.log.Info("lawyer deleted", zap.String("id", id), zap.Int64("unassignedCases", unassigned))
	return nil
}

// Recount 按案件表重算 caseCount（补偿修正）
func (s *LawyerService) Recount(ctx context.Context, id string) (*domain.Lawyer, error) {
	if !utils.IsID(id) {
		return nil, apperr.NotFound("Lawyer")
	}
	ok, err := s.store.Lawyers.Exists(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("recount", err)
	}
	if !ok {
		return nil, apperr.NotFound("Lawyer")
	}
	if _, err := s.store.Lawyers.Recount(ctx, id); err != nil {
		return nil, apperr.FromStore("recount", err)
	}
	return s.Get(ctx, id)
}

type RecountResult struct {
	Updated int64 `json:"updated"`
}

func (s *LawyerService) RecountAll(ctx context.Context) (RecountResult, error) {
	n, err := s.store.Lawyers.RecountAll(ctx)
	if err != nil {
		return RecountResult{}, apperr.FromStore("recount all", err)
	}
	s.log.Info("case counts recomputed", zap.Int64("lawyers", n))
	return RecountResult{Updated: n}, nil
}
