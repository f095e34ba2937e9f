package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskcycle/internal/model"
)

// CompletionRepository manages the append-only completion log.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) Create(ctx context.Context, completion *model.RecurringCompletion) error {
	if err := r.db.WithContext(ctx).Create(completion).Error; err != nil {
		return fmt.Errorf("create completion: %w", err)
	}
	return nil
}

// ListByTask returns all completion records for a task ordered by
// completion time ascending.
func (r *CompletionRepository) ListByTask(ctx context.Context, taskID uint) ([]model.RecurringCompletion, error) {
	var completions []model.RecurringCompletion
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("completed_at ASC").
		Find(&completions).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return completions, nil
}

// CountInRange counts non-skipped completions with completed_at in
// [from, to).
func (r *CompletionRepository) CountInRange(ctx context.Context, taskID uint, from, to time.Time) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.RecurringCompletion{}).
		Where("task_id = ? AND skipped = ? AND completed_at >= ? AND completed_at < ?", taskID, false, from, to).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return int(count), nil
}

// Delete removes one completion record. Callers must recompute the
// task's cached streak counters afterwards.
func (r *CompletionRepository) Delete(ctx context.Context, taskID, completionID uint) error {
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND id = ?", taskID, completionID).
		Delete(&model.RecurringCompletion{}).Error; err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}
