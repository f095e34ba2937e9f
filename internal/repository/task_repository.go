package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskcycle/internal/model"
	"taskcycle/internal/recurrence"
)

// TaskRepository handles CRUD for tasks, templates and generated
// instances.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTemplates returns active recurring templates, optionally filtered
// to one user, ordered oldest generation cursor first so templates that
// are furthest behind catch up first. Templates that never generated
// (NULL cursor) sort before all others.
func (r *TaskRepository) ListTemplates(ctx context.Context, userID *uint) ([]model.Task, error) {
	// Habit tasks keep their single row and log completions against it,
	// so they never materialize instances.
	q := r.db.WithContext(ctx).
		Where("recurring_parent_id IS NULL AND archived = ? AND habit_mode = ?", false, false).
		Where("recurrence_type NOT IN ?", []string{"", string(recurrence.TypeNone)})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var tasks []model.Task
	if err := q.Order("last_generated_date ASC NULLS FIRST").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return tasks, nil
}

// ListChildren returns the direct subtasks of a task.
func (r *TaskRepository) ListChildren(ctx context.Context, userID, parentID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND parent_task_id = ?", userID, parentID).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return tasks, nil
}

// CreateInstanceForDay inserts a generated instance unless one already
// exists for the same (user, template, project, UTC calendar day). The
// existence check and the insert run in one transaction so two
// concurrent generation passes cannot both create a row for the day.
// Cloned subtasks are attached to the new instance inside the same
// transaction. Returns false when an instance for the day already
// existed.
func (r *TaskRepository) CreateInstanceForDay(ctx context.Context, instance *model.Task, subtasks []model.Task) (bool, error) {
	if instance.RecurringParentID == nil || instance.DueDate == nil {
		return false, fmt.Errorf("create instance: template link and due date are required")
	}

	dayStart := recurrence.DayStart(*instance.DueDate)
	dayEnd := recurrence.DayEnd(*instance.DueDate)

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Task{}).
			Where("user_id = ? AND recurring_parent_id = ?", instance.UserID, *instance.RecurringParentID).
			Where("due_date >= ? AND due_date < ?", dayStart, dayEnd)
		if instance.ProjectID != nil {
			q = q.Where("project_id = ?", *instance.ProjectID)
		} else {
			q = q.Where("project_id IS NULL")
		}

		var count int64
		if err := q.Count(&count).Error; err != nil {
			return fmt.Errorf("check existing instance: %w", err)
		}
		if count > 0 {
			return nil
		}

		if err := tx.Create(instance).Error; err != nil {
			return fmt.Errorf("create instance: %w", err)
		}
		for i := range subtasks {
			subtasks[i].ParentTaskID = &instance.ID
			if err := tx.Create(&subtasks[i]).Error; err != nil {
				return fmt.Errorf("clone subtask: %w", err)
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
