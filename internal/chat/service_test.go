package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RenameBlankRestoresDefault(t *testing.T) {
	svc := NewService(newTestRepo(t))
	ctx := context.Background()

	c, err := svc.CreateChat(ctx, "Trip planning")
	require.NoError(t, err)

	require.NoError(t, svc.RenameChat(ctx, c.ID, "   "))
	got, err := svc.GetChat(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, got.Title)

	assert.ErrorIs(t, svc.RenameChat(ctx, "missing", "x"), ErrNotFound)
}

func TestService_ListMessages(t *testing.T) {
	svc := NewService(newTestRepo(t))
	ctx := context.Background()

	_, err := svc.ListMessages(ctx, "missing", false, OrderAsc)
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := svc.CreateChat(ctx, "")
	require.NoError(t, err)
	for _, m := range []struct {
		role    Role
		content string
	}{
		{RoleSystem, "setup"},
		{RoleUser, "q"},
		{RoleAssistant, "analysis"},
		{RoleAI, "a"},
	} {
		_, err := svc.Repo().AppendMessage(ctx, c.ID, m.role, m.content)
		require.NoError(t, err)
	}

	all, err := svc.ListMessages(ctx, c.ID, false, OrderAsc)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	visible, err := svc.ListMessages(ctx, c.ID, true, OrderDesc)
	require.NoError(t, err)
	require.Len(t, visible, 3)
	assert.Equal(t, "a", visible[0].Content)
	assert.Equal(t, "q", visible[2].Content)
}

func TestService_JobsNeedAChat(t *testing.T) {
	svc := NewService(newTestRepo(t))
	ctx := context.Background()

	_, _, err := svc.CreateJobOrGetExisting(ctx, &Job{ID: "01JOBAAAAAAAAAAAAAAAAAAAAA", ChatID: "missing", Content: "hi", Status: JobQueued})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetJob(ctx, "01JOBAAAAAAAAAAAAAAAAAAAAA")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
