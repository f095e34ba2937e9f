package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskcycle/internal/model"
)

func TestCompletionRepository_CountInRangeSkipsSkipped(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCompletionRepository(db)
	user := seedUser(t, db, "ada")
	tpl := seedTemplate(t, NewTaskRepository(db), user.ID, "meditate", nil)

	base := time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.RecurringCompletion{
			TaskID:      tpl.ID,
			CompletedAt: base.AddDate(0, 0, i),
		}))
	}
	require.NoError(t, repo.Create(ctx, &model.RecurringCompletion{
		TaskID:      tpl.ID,
		CompletedAt: base.AddDate(0, 0, 3),
		Skipped:     true,
	}))

	count, err := repo.CountInRange(ctx, tpl.ID, base, base.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Range end is exclusive.
	count, err = repo.CountInRange(ctx, tpl.ID, base, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCompletionRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCompletionRepository(db)
	user := seedUser(t, db, "ada")
	tpl := seedTemplate(t, NewTaskRepository(db), user.ID, "meditate", nil)

	late := time.Date(2025, time.June, 12, 8, 0, 0, 0, time.UTC)
	early := late.AddDate(0, 0, -2)
	require.NoError(t, repo.Create(ctx, &model.RecurringCompletion{TaskID: tpl.ID, CompletedAt: late}))
	require.NoError(t, repo.Create(ctx, &model.RecurringCompletion{TaskID: tpl.ID, CompletedAt: early}))

	log, err := repo.ListByTask(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.True(t, log[0].CompletedAt.Before(log[1].CompletedAt), "ascending order")

	require.NoError(t, repo.Delete(ctx, tpl.ID, log[0].ID))
	log, err = repo.ListByTask(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.True(t, log[0].CompletedAt.Equal(late))
}
