package service

import (
	"context"
	"fmt"
	"time"

	"taskcycle/internal/model"
	"taskcycle/internal/recurrence"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Name     string
	Note     string
	Priority int
	Project  string
	DueDate  *time.Time

	RecurrenceType        string
	RecurrenceInterval    int
	RecurrenceWeekday     *int
	RecurrenceMonthDay    *int
	RecurrenceWeekOfMonth *int
	RecurrenceEndDate     *time.Time
	CompletionBased       bool

	HabitMode       bool
	TargetCount     int
	FrequencyPeriod string
	StreakMode      string
	FlexibilityMode string
}

// TaskService wraps task-related business logic and routes completion
// events to the right engine component.
type TaskService struct {
	tasks     TaskStore
	projects  ProjectStore
	generator *Generator
	habits    *HabitService

	now func() time.Time
}

func NewTaskService(tasks TaskStore, projects ProjectStore, generator *Generator, habits *HabitService) *TaskService {
	return &TaskService{tasks: tasks, projects: projects, generator: generator, habits: habits, now: time.Now}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	var projectID *uint
	if input.Project != "" {
		project, err := s.projects.GetOrCreate(ctx, user.ID, input.Project)
		if err != nil {
			return nil, err
		}
		if project != nil {
			projectID = &project.ID
		}
	}

	recurrenceType := input.RecurrenceType
	if recurrenceType == "" {
		recurrenceType = string(recurrence.TypeNone)
	}

	task := model.Task{
		UserID:                user.ID,
		ProjectID:             projectID,
		Name:                  input.Name,
		Note:                  input.Note,
		Priority:              input.Priority,
		DueDate:               input.DueDate,
		RecurrenceType:        recurrenceType,
		RecurrenceInterval:    input.RecurrenceInterval,
		RecurrenceWeekday:     input.RecurrenceWeekday,
		RecurrenceMonthDay:    input.RecurrenceMonthDay,
		RecurrenceWeekOfMonth: input.RecurrenceWeekOfMonth,
		RecurrenceEndDate:     input.RecurrenceEndDate,
		CompletionBased:       input.CompletionBased,
	}

	if input.HabitMode {
		task.HabitMode = true
		task.TargetCount = input.TargetCount
		task.FrequencyPeriod = input.FrequencyPeriod
		task.StreakMode = input.StreakMode
		task.FlexibilityMode = input.FlexibilityMode
		if task.StreakMode == "" {
			task.StreakMode = model.StreakModeCalendar
		}
		if task.FlexibilityMode == "" {
			task.FlexibilityMode = model.FlexibilityStrict
		}
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CompleteTask marks a task done and triggers the follow-up the task's
// mode calls for: habit tasks log a completion against themselves and
// stay open for the next period, completion-based recurring tasks get
// their single next instance created immediately.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, completedAt time.Time) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	if completedAt.IsZero() {
		completedAt = s.now()
	}

	if task.HabitMode {
		if _, err := s.habits.LogCompletion(ctx, task, completedAt); err != nil {
			return nil, err
		}
		return task, nil
	}

	task.IsCompleted = true
	done := completedAt.UTC()
	task.CompletedAt = &done
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	// No-op unless the task belongs to a completion-based recurrence.
	if _, err := s.generator.OnCompletion(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}
