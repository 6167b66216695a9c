package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Store 聚合各实体仓储；事务内通过 Transaction 拿到绑定到 tx 的新 Store
type Store struct {
	db *gorm.DB

	Lawyers  *LawyerRepo
	Courts   *CourtRepo
	Cases    *CaseRepo
	Hearings *HearingRepo
	Accounts *AccountRepo
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Lawyers:  &LawyerRepo{db: db},
		Courts:   &CourtRepo{db: db},
		Cases:    &CaseRepo{db: db},
		Hearings: &HearingRepo{db: db},
		Accounts: &AccountRepo{db: db},
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction fn 返回错误即回滚；fn 内只能使用参数里的 tx Store
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// first 未找到返回 nil, nil
func first[T any](ctx context.Context, db *gorm.DB, where string, args ...any) (*T, error) {
	var v T
	err := db.WithContext(ctx).Where(where, args...).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func exists[T any](ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
