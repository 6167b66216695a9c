package repo

import (
	"context"

	"gorm.io/gorm"

	"lawdesk/internal/domain"
)

type AccountRepo struct{ db *gorm.DB }

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// FindLink 某个律师在某个来源下的账号
func (r *AccountRepo) FindLink(ctx context.Context, userID, provider, providerAccountID string) (*domain.Account, error) {
	return first[domain.Account](ctx, r.db,
		"user_id = ? AND provider = ? AND provider_account_id = ?", userID, provider, providerAccountID)
}

func (r *AccountRepo) FindByProvider(ctx context.Context, provider, providerAccountID string) (*domain.Account, error) {
	return first[domain.Account](ctx, r.db, "provider = ? AND provider_account_id = ?", provider, providerAccountID)
}

func (r *AccountRepo) ListByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	out := []domain.Account{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *AccountRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Account{})
	return res.RowsAffected, res.Error
}

// FindCredentials 律师的密码账号
func (r *AccountRepo) FindCredentials(ctx context.Context, userID string) (*domain.Account, error) {
	return first[domain.Account](ctx, r.db, "user_id = ? AND provider = ?", userID, domain.ProviderCredentials)
}

// RenameCredentials 邮箱变更时同步密码账号的 providerAccountId
func (r *AccountRepo) RenameCredentials(ctx context.Context, userID, email string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Account{}).
		Where("user_id = ? AND provider = ?", userID, domain.ProviderCredentials).
		Update("provider_account_id", email)
	return res.RowsAffected, res.Error
}
