package service

import (
	"context"
	"fmt"
	"time"

	"taskcycle/internal/model"
	"taskcycle/internal/recurrence"
)

// DefaultLookAheadDays is the forward horizon within which future
// instances are pre-materialized.
const DefaultLookAheadDays = 7

// maxInstancesPerPass caps how many instances one template may produce
// in a single pass, guarding against misconfigured rules. Hitting the
// cap is not an error; the next pass picks up the remainder.
const maxInstancesPerPass = 100

// Generator materializes task instances from recurring templates. It is
// idempotent: re-running a pass with an unchanged clock and rule set
// creates nothing new, because instance creation is keyed by
// (user, template, project, calendar day).
type Generator struct {
	tasks TaskStore
	locks *userLocks

	// now is replaceable in tests.
	now func() time.Time
}

func NewGenerator(tasks TaskStore) *Generator {
	return &Generator{
		tasks: tasks,
		locks: newUserLocks(),
		now:   time.Now,
	}
}

// Generate runs one pass over active recurring templates, optionally
// filtered to a single user, and returns the instances it created.
// Templates are processed oldest generation cursor first. Users whose
// lock is held by a concurrent pass are skipped silently, so a
// contended single-user call yields an empty result.
//
// An error on one template aborts the pass; instances created before
// the failure are already committed, and the pass is safe to retry.
func (g *Generator) Generate(ctx context.Context, userID *uint, lookAheadDays int) ([]model.Task, error) {
	if lookAheadDays <= 0 {
		lookAheadDays = DefaultLookAheadDays
	}
	now := g.now().UTC()
	windowEnd := now.AddDate(0, 0, lookAheadDays)

	templates, err := g.tasks.ListTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}

	acquired := make(map[uint]struct{})
	contended := make(map[uint]struct{})
	defer func() {
		for id := range acquired {
			g.locks.release(id)
		}
	}()

	var created []model.Task
	for i := range templates {
		tpl := &templates[i]
		if _, skip := contended[tpl.UserID]; skip {
			continue
		}
		if _, held := acquired[tpl.UserID]; !held {
			if !g.locks.tryAcquire(tpl.UserID) {
				contended[tpl.UserID] = struct{}{}
				continue
			}
			acquired[tpl.UserID] = struct{}{}
		}

		instances, err := g.generateForTemplate(ctx, tpl, now, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", tpl.ID, err)
		}
		created = append(created, instances...)
	}
	return created, nil
}

func (g *Generator) generateForTemplate(ctx context.Context, tpl *model.Task, now, windowEnd time.Time) ([]model.Task, error) {
	rule := tpl.Rule()

	// A pass already at or past the rule's end date has nothing to do.
	if rule.EndDate != nil && !now.Before(rule.EndDate.UTC()) {
		return nil, nil
	}

	children, err := g.tasks.ListChildren(ctx, tpl.UserID, tpl.ID)
	if err != nil {
		return nil, err
	}

	var created []model.Task

	// Bootstrap: a template that never generated materializes its own
	// due date first, provided it falls inside the look-ahead window.
	// Earlier times on today's calendar day still count as inside.
	if tpl.LastGeneratedDate == nil {
		due := now
		if tpl.DueDate != nil {
			due = tpl.DueDate.UTC()
		}
		if !due.Before(recurrence.DayStart(now)) && !due.After(windowEnd) {
			inst, ok, err := g.createInstance(ctx, tpl, children, due)
			if err != nil {
				return nil, err
			}
			if ok {
				created = append(created, *inst)
			}
			// A future-dated bootstrap must not move the cursor ahead
			// of real time.
			if !due.After(now) {
				if err := g.advanceCursor(ctx, tpl, due); err != nil {
					return nil, err
				}
			}
		}
	}

	anchor := now
	switch {
	case tpl.LastGeneratedDate != nil:
		anchor = tpl.LastGeneratedDate.UTC()
	case tpl.DueDate != nil:
		anchor = tpl.DueDate.UTC()
	}

	// Roll forward from the cursor, materializing every occurrence
	// inside the window. Occurrences are strictly increasing, so the
	// loop never revisits a date.
	for len(created) < maxInstancesPerPass {
		next, ok := recurrence.NextOccurrence(rule, anchor)
		if !ok || next.After(windowEnd) {
			break
		}
		if rule.EndDate != nil && !next.Before(rule.EndDate.UTC()) {
			break
		}

		inst, madeNew, err := g.createInstance(ctx, tpl, children, next)
		if err != nil {
			return nil, err
		}
		if madeNew {
			created = append(created, *inst)
		}
		if !next.After(now) {
			if err := g.advanceCursor(ctx, tpl, next); err != nil {
				return nil, err
			}
		}
		anchor = next
	}
	return created, nil
}

// OnCompletion advances a completion-based recurrence when its task is
// marked done. The completion event is the cursor advance; exactly one
// follow-up instance is created, anchored at the completion time rather
// than the old due date. Returns nil when the task's recurrence is not
// completion based, has ended, or the next day already has an instance.
func (g *Generator) OnCompletion(ctx context.Context, task *model.Task) (*model.Task, error) {
	tpl := task
	if task.RecurringParentID != nil {
		t, err := g.tasks.FindByID(ctx, task.UserID, *task.RecurringParentID)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
		tpl = t
	}

	rule := tpl.Rule()
	if !rule.CompletionBased || !rule.Active() {
		return nil, nil
	}

	now := g.now().UTC()
	if rule.EndDate != nil && !now.Before(rule.EndDate.UTC()) {
		return nil, nil
	}

	if err := g.advanceCursor(ctx, tpl, now); err != nil {
		return nil, err
	}

	next, ok := recurrence.NextOccurrence(rule, now)
	if !ok {
		return nil, nil
	}
	if rule.EndDate != nil && !next.Before(rule.EndDate.UTC()) {
		return nil, nil
	}

	children, err := g.tasks.ListChildren(ctx, tpl.UserID, tpl.ID)
	if err != nil {
		return nil, err
	}
	inst, madeNew, err := g.createInstance(ctx, tpl, children, next)
	if err != nil {
		return nil, err
	}
	if !madeNew {
		return nil, nil
	}
	return inst, nil
}

func (g *Generator) advanceCursor(ctx context.Context, tpl *model.Task, to time.Time) error {
	// The cursor never rewinds.
	if tpl.LastGeneratedDate != nil && to.Before(tpl.LastGeneratedDate.UTC()) {
		return nil
	}
	cursor := to
	tpl.LastGeneratedDate = &cursor
	return g.tasks.Save(ctx, tpl)
}

func (g *Generator) createInstance(ctx context.Context, tpl *model.Task, children []model.Task, due time.Time) (*model.Task, bool, error) {
	inst := newInstance(tpl, due)
	madeNew, err := g.tasks.CreateInstanceForDay(ctx, inst, cloneSubtasks(tpl, children))
	if err != nil {
		return nil, false, err
	}
	return inst, madeNew, nil
}

// newInstance snapshots the template's content fields onto a fresh
// instance due at the given occurrence. The snapshot does not follow
// later template edits.
func newInstance(tpl *model.Task, due time.Time) *model.Task {
	dueDate := due
	return &model.Task{
		UserID:            tpl.UserID,
		ProjectID:         tpl.ProjectID,
		Name:              tpl.Name,
		Note:              tpl.Note,
		Priority:          tpl.Priority,
		DueDate:           &dueDate,
		RecurrenceType:    string(recurrence.TypeNone),
		RecurringParentID: &tpl.ID,
	}
}

// cloneSubtasks copies the template's direct children (one level only)
// so the repository can attach them to a new instance.
func cloneSubtasks(tpl *model.Task, children []model.Task) []model.Task {
	clones := make([]model.Task, 0, len(children))
	for _, child := range children {
		clones = append(clones, model.Task{
			UserID:         tpl.UserID,
			ProjectID:      child.ProjectID,
			Name:           child.Name,
			Note:           child.Note,
			Priority:       child.Priority,
			RecurrenceType: string(recurrence.TypeNone),
		})
	}
	return clones
}
