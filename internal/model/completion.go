package model

import "time"

// RecurringCompletion is one entry in a task's append-only completion
// log. Habit statistics are derived from this log, never from generated
// task instances. Rows are only ever inserted or deleted; deletion
// triggers a full streak recomputation.
type RecurringCompletion struct {
	ID              uint `gorm:"primaryKey"`
	TaskID          uint `gorm:"index"`
	CompletedAt     time.Time
	OriginalDueDate *time.Time
	Skipped         bool `gorm:"default:false"`
	CreatedAt       time.Time
}
