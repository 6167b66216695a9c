package domain

import "time"

type Lawyer struct {
	ID             string         `gorm:"primaryKey;size:24" json:"id"`
	Name           string         `gorm:"size:100;not null" json:"name"`
	Email          string         `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Specialization Specialization `gorm:"size:32;not null;default:Other" json:"specialization"`
	BarNumber      *string        `gorm:"uniqueIndex;size:64" json:"barNumber,omitempty"`
	Role           Role           `gorm:"size:16;not null;default:guest;index" json:"role"`
	CaseCount      int64          `gorm:"not null;default:0" json:"caseCount"` // 派生字段，只由案件变更维护
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (Lawyer) TableName() string { return "lawyers" }

// LawyerRef 案件列表里嵌入的律师摘要
type LawyerRef struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Specialization Specialization `json:"specialization"`
}
