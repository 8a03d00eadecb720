package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/mentor-chat/internal/db/dbtest"
)

func TestRepo_CRUDAndTargets(t *testing.T) {
	repo := NewRepo(dbtest.Open(t, &Prompt{}))
	ctx := context.Background()

	main, err := repo.Create(ctx, "Tutor", "You are a tutor.", TargetMain)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "Analyse", "Look for gaps.", TargetAssistant)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "Loose", "Anything.", TargetNone)
	require.NoError(t, err)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mains, err := repo.ListByTarget(ctx, TargetMain)
	require.NoError(t, err)
	require.Len(t, mains, 1)
	assert.Equal(t, main.ID, mains[0].ID)

	content := "You are a patient tutor."
	target := TargetCalculate
	got, err := repo.Update(ctx, main.ID, nil, &content, &target)
	require.NoError(t, err)
	assert.Equal(t, "Tutor", got.Name)
	assert.Equal(t, content, got.Content)
	assert.Equal(t, TargetCalculate, got.TargetModel)

	require.NoError(t, repo.Delete(ctx, main.ID))
	_, err = repo.Get(ctx, main.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Update(ctx, main.ID, &content, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepo_CreateValidates(t *testing.T) {
	repo := NewRepo(dbtest.Open(t, &Prompt{}))
	_, err := repo.Create(context.Background(), " ", "x", TargetMain)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = repo.Create(context.Background(), "x", "", TargetMain)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget("calculate-main-model")
	require.NoError(t, err)
	assert.Equal(t, TargetCalculate, got)

	got, err = ParseTarget("")
	require.NoError(t, err)
	assert.Equal(t, TargetNone, got)

	_, err = ParseTarget("gpt")
	assert.Error(t, err)
}
