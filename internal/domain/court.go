package domain

import "time"

// Court (name, location) 组合唯一
type Court struct {
	ID        string    `gorm:"primaryKey;size:24" json:"id"`
	Name      string    `gorm:"size:191;not null;uniqueIndex:idx_court_name_location" json:"name"`
	Location  string    `gorm:"size:191;not null;uniqueIndex:idx_court_name_location" json:"location"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Court) TableName() string { return "courts" }

type CourtRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}
