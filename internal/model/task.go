package model

import (
	"time"

	"taskcycle/internal/recurrence"
)

// Habit frequency periods.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Habit streak modes. Scheduled is declared but currently evaluated with
// the calendar algorithm; see service.HabitService.
const (
	StreakModeCalendar  = "calendar"
	StreakModeScheduled = "scheduled"
)

// Habit flexibility modes.
const (
	FlexibilityStrict   = "strict"
	FlexibilityFlexible = "flexible"
)

// Task is a single row in the planner. The same table holds recurring
// templates (RecurrenceType set, RecurringParentID nil), generated
// instances (RecurringParentID set), subtasks (ParentTaskID set) and
// habit tasks (HabitMode).
type Task struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    uint  `gorm:"index"`
	ProjectID *uint `gorm:"index"`

	Name     string
	Note     string
	Priority int

	DueDate     *time.Time
	IsCompleted bool `gorm:"default:false"`
	CompletedAt *time.Time
	Archived    bool `gorm:"default:false"`

	ParentTaskID *uint `gorm:"index"`

	// Recurrence rule columns; meaningful on templates only.
	RecurrenceType        string `gorm:"default:none"`
	RecurrenceInterval    int
	RecurrenceWeekday     *int
	RecurrenceMonthDay    *int
	RecurrenceWeekOfMonth *int
	RecurrenceEndDate     *time.Time
	CompletionBased       bool `gorm:"default:false"`

	// RecurringParentID links a generated instance back to its template.
	RecurringParentID *uint `gorm:"index"`

	// LastGeneratedDate is the template's generation cursor: the due date
	// of the latest materialized occurrence that is not in the future.
	// Never rewound.
	LastGeneratedDate *time.Time

	// Habit tracking. Cached counters are derived from the completion log
	// and must never be hand-edited.
	HabitMode        bool `gorm:"default:false"`
	TargetCount      int
	FrequencyPeriod  string
	StreakMode       string
	FlexibilityMode  string
	CurrentStreak    int
	BestStreak       int
	TotalCompletions int
	LastCompletionAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTemplate reports whether the task is a recurring template rather
// than a generated instance.
func (t *Task) IsTemplate() bool {
	return t.RecurringParentID == nil && t.Rule().Active()
}

// Rule projects the recurrence columns into an evaluator rule.
func (t *Task) Rule() recurrence.Rule {
	typ := recurrence.Type(t.RecurrenceType)
	if t.RecurrenceType == "" {
		typ = recurrence.TypeNone
	}
	return recurrence.Rule{
		Type:            typ,
		Interval:        t.RecurrenceInterval,
		Weekday:         t.RecurrenceWeekday,
		MonthDay:        t.RecurrenceMonthDay,
		WeekOfMonth:     t.RecurrenceWeekOfMonth,
		EndDate:         t.RecurrenceEndDate,
		CompletionBased: t.CompletionBased,
	}
}
