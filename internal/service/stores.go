package service

import (
	"context"
	"time"

	"taskcycle/internal/model"
)

// TaskStore is the persistence surface the engine needs for tasks.
// Satisfied by repository.TaskRepository.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	Save(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error)
	ListTemplates(ctx context.Context, userID *uint) ([]model.Task, error)
	ListChildren(ctx context.Context, userID, parentID uint) ([]model.Task, error)
	CreateInstanceForDay(ctx context.Context, instance *model.Task, subtasks []model.Task) (bool, error)
}

// CompletionStore is the persistence surface for the completion log.
// Satisfied by repository.CompletionRepository.
type CompletionStore interface {
	Create(ctx context.Context, completion *model.RecurringCompletion) error
	ListByTask(ctx context.Context, taskID uint) ([]model.RecurringCompletion, error)
	CountInRange(ctx context.Context, taskID uint, from, to time.Time) (int, error)
	Delete(ctx context.Context, taskID, completionID uint) error
}

// ProjectStore resolves project names for task creation. Satisfied by
// repository.ProjectRepository.
type ProjectStore interface {
	GetOrCreate(ctx context.Context, userID uint, name string) (*model.Project, error)
}
