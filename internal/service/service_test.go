package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskcycle/internal/model"
	"taskcycle/internal/repository"
)

// testEnv wires the engine against a throwaway sqlite database, the
// same stack it runs on in production.
type testEnv struct {
	db          *gorm.DB
	tasks       *repository.TaskRepository
	completions *repository.CompletionRepository
	projects    *repository.ProjectRepository
	user        *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	user := &model.User{Name: "ada"}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))

	return &testEnv{
		db:          db,
		tasks:       repository.NewTaskRepository(db),
		completions: repository.NewCompletionRepository(db),
		projects:    repository.NewProjectRepository(db),
		user:        user,
	}
}

func (e *testEnv) createTask(t *testing.T, task *model.Task) *model.Task {
	t.Helper()
	task.UserID = e.user.ID
	require.NoError(t, e.tasks.Create(context.Background(), task))
	return task
}

func (e *testEnv) reload(t *testing.T, id uint) *model.Task {
	t.Helper()
	task, err := e.tasks.FindByID(context.Background(), e.user.ID, id)
	require.NoError(t, err)
	return task
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
