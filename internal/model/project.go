package model

import "time"

// Project groups tasks by area (work, health, study, etc.). It is part
// of the dedup key for generated instances.
type Project struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_project_name,unique"`
	Name      string `gorm:"index:idx_user_project_name,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:ProjectID"`
}
