package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"taskcycle/internal/model"
	"taskcycle/internal/recurrence"
)

// HabitService derives streaks and statistics from a task's completion
// log. Habit tasks are not materialized per period: completing one
// appends a RecurringCompletion against the same task, and the cached
// counters on the task always equal what a full recomputation over the
// log would yield.
type HabitService struct {
	tasks       TaskStore
	completions CompletionStore

	now func() time.Time
}

func NewHabitService(tasks TaskStore, completions CompletionStore) *HabitService {
	return &HabitService{
		tasks:       tasks,
		completions: completions,
		now:         time.Now,
	}
}

// LogCompletion appends a completion record for a habit task, refreshes
// the cached counters and marks the task done as of completedAt. A zero
// completedAt means now.
func (s *HabitService) LogCompletion(ctx context.Context, task *model.Task, completedAt time.Time) (*model.RecurringCompletion, error) {
	if completedAt.IsZero() {
		completedAt = s.now()
	}
	completedAt = completedAt.UTC()

	record := &model.RecurringCompletion{
		TaskID:          task.ID,
		CompletedAt:     completedAt,
		OriginalDueDate: task.DueDate,
	}
	if err := s.completions.Create(ctx, record); err != nil {
		return nil, err
	}

	if err := s.refreshCounters(ctx, task); err != nil {
		return nil, err
	}

	task.IsCompleted = true
	done := completedAt
	task.CompletedAt = &done
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return record, nil
}

// RecalculateStreaks rebuilds every cached counter from the remaining
// completion log as of now. Used after a completion record is removed;
// there is no incremental undo.
func (s *HabitService) RecalculateStreaks(ctx context.Context, task *model.Task) error {
	if err := s.refreshCounters(ctx, task); err != nil {
		return err
	}
	return s.tasks.Save(ctx, task)
}

// DeleteCompletion removes one completion record and rebuilds the
// task's counters from what is left.
func (s *HabitService) DeleteCompletion(ctx context.Context, task *model.Task, completionID uint) error {
	if err := s.completions.Delete(ctx, task.ID, completionID); err != nil {
		return err
	}
	return s.RecalculateStreaks(ctx, task)
}

// refreshCounters rebuilds the cached counters from the log. The
// current streak is always evaluated as of now, so a backdated
// completion cannot cache a stale as-of-that-day value.
func (s *HabitService) refreshCounters(ctx context.Context, task *model.Task) error {
	log, err := s.completions.ListByTask(ctx, task.ID)
	if err != nil {
		return err
	}

	asOf := s.now()
	days := completionDays(log)
	task.TotalCompletions = countCompleted(log)
	task.LastCompletionAt = lastCompletedAt(log)
	task.CurrentStreak = s.currentStreak(task, days, asOf)
	task.BestStreak = bestStreak(days)
	if task.CurrentStreak > task.BestStreak {
		task.BestStreak = task.CurrentStreak
	}
	return nil
}

func (s *HabitService) currentStreak(task *model.Task, days map[time.Time]struct{}, asOf time.Time) int {
	switch task.StreakMode {
	case model.StreakModeScheduled:
		return s.scheduledStreak(days, asOf)
	default:
		return calendarStreak(days, asOf)
	}
}

// scheduledStreak is meant to count consecutive expected occurrences of
// the habit's recurrence rule. Occurrence-based counting is not
// implemented yet; scheduled habits currently share the calendar
// algorithm. Kept as a named variant so the real semantics can be
// swapped in without touching callers.
func (s *HabitService) scheduledStreak(days map[time.Time]struct{}, asOf time.Time) int {
	return calendarStreak(days, asOf)
}

// calendarStreak counts consecutive completed calendar days walking
// backward from asOf. Multiple completions on one day count once; the
// first day without a completion terminates the walk.
func calendarStreak(days map[time.Time]struct{}, asOf time.Time) int {
	day := recurrence.DayStart(asOf)
	streak := 0
	for {
		if _, done := days[day]; !done {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// bestStreak scans the whole history for the longest run of consecutive
// calendar days. Same-day repeats were already collapsed; a gap of more
// than one day breaks a run.
func bestStreak(days map[time.Time]struct{}) int {
	sorted := make([]time.Time, 0, len(days))
	for day := range days {
		sorted = append(sorted, day)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	best, run := 0, 0
	var prev time.Time
	for i, day := range sorted {
		if i > 0 && day.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = day
	}
	return best
}

// PeriodTarget returns the expected completion count for the range
// [from, to): target_count scaled by how many frequency periods the
// range spans. Zero when the habit has no target configured.
func (s *HabitService) PeriodTarget(task *model.Task, from, to time.Time) int {
	if task.TargetCount <= 0 || !to.After(from) {
		return 0
	}
	periodLen := 1
	switch task.FrequencyPeriod {
	case model.PeriodWeekly:
		periodLen = 7
	case model.PeriodMonthly:
		periodLen = 30 // approximate
	}
	days := int(to.Sub(from).Hours() / 24)
	if days < 1 {
		days = 1
	}
	periods := (days + periodLen - 1) / periodLen
	return task.TargetCount * periods
}

// CompletionRate reports completions in [from, to) as a percentage of
// the period target. Nil when no target is configured.
func (s *HabitService) CompletionRate(ctx context.Context, task *model.Task, from, to time.Time) (*float64, error) {
	target := s.PeriodTarget(task, from, to)
	if target == 0 {
		return nil, nil
	}
	count, err := s.completions.CountInRange(ctx, task.ID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("completion rate: %w", err)
	}
	rate := float64(count) / float64(target) * 100
	return &rate, nil
}

// IsDueToday reports whether the habit expects a completion on today's
// UTC calendar day. Flexible habits are always due; strict habits are
// due only when the recurrence rule, anchored at the last completion
// (or the task's creation when none), lands inside today.
func (s *HabitService) IsDueToday(task *model.Task, today time.Time) bool {
	if task.FlexibilityMode == model.FlexibilityFlexible {
		return true
	}

	anchor := task.CreatedAt
	if task.LastCompletionAt != nil {
		anchor = *task.LastCompletionAt
	}
	next, ok := recurrence.NextOccurrence(task.Rule(), anchor)
	if !ok {
		return false
	}
	return !next.Before(recurrence.DayStart(today)) && next.Before(recurrence.DayEnd(today))
}

// completionDays collapses the log to the set of UTC days holding at
// least one non-skipped completion.
func completionDays(log []model.RecurringCompletion) map[time.Time]struct{} {
	days := make(map[time.Time]struct{}, len(log))
	for _, c := range log {
		if c.Skipped {
			continue
		}
		days[recurrence.DayStart(c.CompletedAt)] = struct{}{}
	}
	return days
}

func countCompleted(log []model.RecurringCompletion) int {
	n := 0
	for _, c := range log {
		if !c.Skipped {
			n++
		}
	}
	return n
}

func lastCompletedAt(log []model.RecurringCompletion) *time.Time {
	var last *time.Time
	for i := range log {
		c := log[i]
		if c.Skipped {
			continue
		}
		if last == nil || c.CompletedAt.After(*last) {
			ts := c.CompletedAt.UTC()
			last = &ts
		}
	}
	return last
}
