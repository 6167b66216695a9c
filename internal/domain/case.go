package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Case struct {
	ID         string     `gorm:"primaryKey;size:24" json:"id"`
	CaseNumber string     `gorm:"uniqueIndex;size:32;not null" json:"caseNumber"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	ClientName string     `gorm:"size:255;not null" json:"clientName"`
	LawyerID   *string    `gorm:"size:24;index" json:"lawyerId"`
	CourtID    *string    `gorm:"size:24;index" json:"courtId"`
	Status     CaseStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	// HearingIDs 有序，由听证会的增删改维护，调用方不能直接写
	HearingIDs datatypes.JSONSlice[string] `json:"hearingIds"`
	CreatedAt  time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
}

func (Case) TableName() string { return "cases" }

// HasHearing 判断听证会是否已挂在本案件下
func (c *Case) HasHearing(id string) bool {
	for _, h := range c.HearingIDs {
		if h == id {
			return true
		}
	}
	return false
}

// CaseView 带律师/法院摘要的案件（对应原先的 populate）
type CaseView struct {
	Case
	Lawyer *LawyerRef `json:"lawyer,omitempty"`
	Court  *CourtRef  `json:"court,omitempty"`
}

type CaseRef struct {
	ID         string `json:"id"`
	CaseNumber string `json:"caseNumber"`
	Title      string `json:"title"`
	ClientName string `json:"clientName"`
}
