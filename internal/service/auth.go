package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lawdesk/internal/apperr"
	"lawdesk/internal/domain"
	"lawdesk/internal/repo"
	"lawdesk/pkg/utils"
)

type SignUpInput struct {
	Name           string                `json:"name" validate:"required,max=50,personname"`
	Email          string                `json:"email" validate:"required,email,max=191"`
	Password       string                `json:"password" validate:"required,password"`
	Specialization domain.Specialization `json:"specialization" validate:"omitempty,specialization"`
	BarNumber      *string               `json:"barNumber" validate:"omitnil,max=64"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type OAuthUser struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=191"`
	Username string `json:"username" validate:"omitempty,min=3"`
	Image    string `json:"image" validate:"omitempty,url"`
}

type OAuthSignInInput struct {
	Provider          string    `json:"provider" validate:"required,oneof=google"`
	ProviderAccountID string    `json:"providerAccountId" validate:"required,max=191"`
	User              OAuthUser `json:"user"`
}

// Session 登录结果
type Session struct {
	Token  string         `json:"token"`
	Lawyer *domain.Lawyer `json:"lawyer"`
}

const msgBadCredentials = "Invalid email or password"

type AuthService struct {
	store  *repo.Store
	log    *zap.Logger
	tokens TokenIssuer
}

func (s *AuthService) session(l *domain.Lawyer) (*Session, error) {
	if s.tokens == nil {
		return &Session{Lawyer: l}, nil
	}
	tok, err := s.tokens.Issue(l.ID, string(l.Role))
	if err != nil {
		return nil, apperr.Internal("issue token failed", err)
	}
	return &Session{Token: tok, Lawyer: l}, nil
}

// SignUp 律师（guest）+ credentials 账号，同一事务
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	spec := in.Specialization
	if spec == "" {
		spec = domain.SpecOther
	}
	bar := in.BarNumber
	if bar != nil && strings.TrimSpace(*bar) == "" {
		bar = nil
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password failed", err)
	}
	l := &domain.Lawyer{
		ID:             utils.NewID(),
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		Specialization: spec,
		BarNumber:      bar,
		Role:           domain.RoleGuest,
	}
	err = s.store.Transaction(ctx, func(tx *repo.Store) error {
		if err := checkUnique(ctx, tx, "", &email, bar); err != nil {
			return err
		}
		if err := tx.Lawyers.Create(ctx, l); err != nil {
			return err
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
		return nil, lawyerDup("sign up", err)
	}
	s.log.Info("lawyer signed up", zap.String("id", l.ID))
	return s.session(l)
}

// SignIn 邮箱 + 密码；不区分是邮箱不存在还是密码错误
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	l, err := s.store.Lawyers.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, apperr.FromStore("sign in", err)
	}
	if l == nil {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	acc, err := s.store.Accounts.FindCredentials(ctx, l.ID)
	if err != nil {
		return nil, apperr.FromStore("sign in", err)
	}
	if acc == nil || !utils.CheckPassword(in.Password, acc.Password) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	return s.session(l)
}

// OAuthSignIn 外部身份登录：律师按邮箱查找或创建（名字不同则更新），
// 再按 (userId, provider, providerAccountId) 查找或创建账号；全部在一个事务内。
// 调用方是已完成身份校验的上游认证服务，这里不签发 token
func (s *AuthService) OAuthSignIn(ctx context.Context, in OAuthSignInInput) (*domain.Lawyer, error) {
	email := normalizeEmail(in.User.Email)
	name := strings.TrimSpace(in.User.Name)
	var l *domain.Lawyer
	err := s.store.Transaction(ctx, func(tx *repo.Store) error {
		var err error
		if l, err = tx.Lawyers.FindByEmail(ctx, email); err != nil {
			return err
		}
		if l == nil {
			l = &domain.Lawyer{
				ID:             utils.NewID(),
				Name:           name,
				Email:          email,
				Specialization: domain.SpecOther,
				Role:           domain.RoleGuest,
			}
			if err := tx.Lawyers.Create(ctx, l); err != nil {
				return err
			}
		} else if l.Name != name {
			if _, err := tx.Lawyers.Update(ctx, l.ID, map[string]any{"name": name}); err != nil {
				return err
			}
			l.Name = name
		}

		acc, err := tx.Accounts.FindLink(ctx, l.ID, in.Provider, in.ProviderAccountID)
		if err != nil {
			return err
		}
		if acc != nil {
			return nil
		}
		return tx.Accounts.Create(ctx, &domain.Account{
			ID:                utils.NewID(),
			UserID:            l.ID,
			Provider:          in.Provider,
			ProviderAccountID: in.ProviderAccountID,
		})
	})
	if err != nil {
		s.log.Warn("oauth sign-in rolled back", zap.String("provider", in.Provider), zap.Error(err))
		return nil, dupAs("oauth sign in", err, "Account is linked to another user")
	}
	s.log.Info("oauth identity linked", zap.String("id", l.ID), zap.String("provider", in.Provider))
	return l, nil
}

// Me 当前登录律师
func (s *AuthService) Me(ctx context.Context, uid string) (*domain.Lawyer, error) {
	if uid == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	l, err := s.store.Lawyers.FindByID(ctx, uid)
	if err != nil {
		return nil, apperr.FromStore("me", err)
	}
	if l == nil {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	return l, nil
}

// CurrentRole token 鉴权时读取律师当前角色；律师已删除时 found 为 false
func (s *AuthService) CurrentRole(ctx context.Context, uid string) (string, bool, error) {
	if !utils.IsID(uid) {
		return "", false, nil
	}
	l, err := s.store.Lawyers.FindByID(ctx, uid)
	if err != nil {
		return "", false, apperr.FromStore("load principal", err)
	}
	if l == nil {
		return "", false, nil
	}
	return string(l.Role), true, nil
}
