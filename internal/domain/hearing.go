package domain

import "time"

type Hearing struct {
	ID          string    `gorm:"primaryKey;size:24" json:"id"`
	CaseID      string    `gorm:"size:24;not null;index" json:"caseId"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Description string    `gorm:"size:1000" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Hearing) TableName() string { return "hearings" }

type HearingView struct {
	Hearing
	Case *CaseRef `json:"case,omitempty"`
}
