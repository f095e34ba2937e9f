package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskcycle/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	user := &model.User{Name: name}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func seedTemplate(t *testing.T, repo *TaskRepository, userID uint, name string, cursor *time.Time) *model.Task {
	t.Helper()
	tpl := &model.Task{
		UserID:            userID,
		Name:              name,
		RecurrenceType:    "daily",
		LastGeneratedDate: cursor,
	}
	require.NoError(t, repo.Create(context.Background(), tpl))
	return tpl
}

func TestCreateInstanceForDay_AtMostOnePerDay(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db, "ada")
	tpl := seedTemplate(t, repo, user.ID, "water plants", nil)

	due := time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC)
	first := &model.Task{UserID: user.ID, Name: tpl.Name, RecurrenceType: "none", RecurringParentID: &tpl.ID, DueDate: &due}
	created, err := repo.CreateInstanceForDay(ctx, first, nil)
	require.NoError(t, err)
	assert.True(t, created)

	// Same calendar day, different time of day: still a duplicate.
	laterSameDay := due.Add(10 * time.Hour)
	second := &model.Task{UserID: user.ID, Name: tpl.Name, RecurrenceType: "none", RecurringParentID: &tpl.ID, DueDate: &laterSameDay}
	created, err = repo.CreateInstanceForDay(ctx, second, nil)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&model.Task{}).Where("recurring_parent_id = ?", tpl.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// The next day is a fresh slot.
	nextDay := due.AddDate(0, 0, 1)
	third := &model.Task{UserID: user.ID, Name: tpl.Name, RecurrenceType: "none", RecurringParentID: &tpl.ID, DueDate: &nextDay}
	created, err = repo.CreateInstanceForDay(ctx, third, nil)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreateInstanceForDay_ProjectIsPartOfTheKey(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db, "ada")
	tpl := seedTemplate(t, repo, user.ID, "standup notes", nil)

	project, err := NewProjectRepository(db).GetOrCreate(ctx, user.ID, "work")
	require.NoError(t, err)

	due := time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC)
	noProject := &model.Task{UserID: user.ID, Name: tpl.Name, RecurrenceType: "none", RecurringParentID: &tpl.ID, DueDate: &due}
	created, err := repo.CreateInstanceForDay(ctx, noProject, nil)
	require.NoError(t, err)
	assert.True(t, created)

	withProject := &model.Task{UserID: user.ID, ProjectID: &project.ID, Name: tpl.Name, RecurrenceType: "none", RecurringParentID: &tpl.ID, DueDate: &due}
	created, err = repo.CreateInstanceForDay(ctx, withProject, nil)
	require.NoError(t, err)
	assert.True(t, created, "different project is a different slot")
}

func TestCreateInstanceForDay_ClonesSubtasksAtomically(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db, "ada")
	tpl := seedTemplate(t, repo, user.ID, "weekly review", nil)

	due := time.Date(2025, time.June, 20, 17, 0, 0, 0, time.UTC)
	instance := &model.Task{UserID: user.ID, Name: tpl.Name, RecurrenceType: "none", RecurringParentID: &tpl.ID, DueDate: &due}
	subtasks := []model.Task{
		{UserID: user.ID, Name: "clear inbox", RecurrenceType: "none"},
		{UserID: user.ID, Name: "plan next week", RecurrenceType: "none"},
	}
	created, err := repo.CreateInstanceForDay(ctx, instance, subtasks)
	require.NoError(t, err)
	require.True(t, created)

	children, err := repo.ListChildren(ctx, user.ID, instance.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "clear inbox", children[0].Name)
	assert.Equal(t, instance.ID, *children[0].ParentTaskID)
}

func TestCreateInstanceForDay_RequiresTemplateLinkAndDueDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db, "ada")

	_, err := repo.CreateInstanceForDay(context.Background(), &model.Task{UserID: user.ID, Name: "orphan"}, nil)
	assert.Error(t, err)
}

func TestListTemplates_OrderAndFiltering(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db, "ada")
	other := seedUser(t, db, "ben")

	older := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	caughtUp := seedTemplate(t, repo, user.ID, "caught up", &newer)
	behind := seedTemplate(t, repo, user.ID, "behind", &older)
	fresh := seedTemplate(t, repo, user.ID, "never generated", nil)
	seedTemplate(t, repo, other.ID, "other user", nil)

	archived := seedTemplate(t, repo, user.ID, "archived", nil)
	archived.Archived = true
	require.NoError(t, repo.Save(ctx, archived))

	habit := seedTemplate(t, repo, user.ID, "habit", nil)
	habit.HabitMode = true
	require.NoError(t, repo.Save(ctx, habit))

	plain := &model.Task{UserID: user.ID, Name: "one-off", RecurrenceType: "none"}
	require.NoError(t, repo.Create(ctx, plain))

	due := older
	instance := &model.Task{UserID: user.ID, Name: "instance", RecurrenceType: "none", RecurringParentID: &behind.ID, DueDate: &due}
	_, err := repo.CreateInstanceForDay(ctx, instance, nil)
	require.NoError(t, err)

	templates, err := repo.ListTemplates(ctx, &user.ID)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	assert.Equal(t, fresh.ID, templates[0].ID, "NULL cursor sorts first")
	assert.Equal(t, behind.ID, templates[1].ID)
	assert.Equal(t, caughtUp.ID, templates[2].ID)

	all, err := repo.ListTemplates(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4, "nil user filter spans users")
}
