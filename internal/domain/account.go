package domain

import "time"

// Account 登录方式；(provider, provider_account_id) 唯一
type Account struct {
	ID                string    `gorm:"primaryKey;size:24" json:"id"`
	UserID            string    `gorm:"size:24;not null;index" json:"userId"`
	Provider          string    `gorm:"size:32;not null;uniqueIndex:idx_account_provider" json:"provider"`
	ProviderAccountID string    `gorm:"size:191;not null;uniqueIndex:idx_account_provider" json:"providerAccountId"`
	Password          string    `gorm:"size:100" json:"-"` // 仅 credentials
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Account) TableName() string { return "accounts" }

// Models 自动迁移的全部模型
func Models() []any {
	return []any{&Lawyer{}, &Court{}, &Case{}, &Hearing{}, &Account{}}
}
