package turn

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/mentor-chat/internal/advisor"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/db/dbtest"
)

func TestJobRunner_Handle(t *testing.T) {
	gdb := dbtest.Open(t, &chat.Chat{}, &chat.Message{}, &chat.Job{}, &advisor.Advisor{})
	chats := chat.NewRepo(gdb)
	locker := NewLocalLocker()
	p := &fakeProvider{respond: replyWith(map[string]string{mainModel: "queued answer"})}
	orch := NewOrchestrator(chats, advisor.NewRepo(gdb), fixedSource{p: p}, locker, zerolog.Nop())
	runner := NewJobRunner(chats, orch, zerolog.Nop())
	ctx := context.Background()

	c, err := chats.CreateChat(ctx, "")
	require.NoError(t, err)
	job := &chat.Job{ID: "01JOBFFFFFFFFFFFFFFFFFFFFF", ChatID: c.ID, Content: "Hello", Status: chat.JobQueued}
	require.NoError(t, chats.CreateJob(ctx, job))

	// a running turn defers the job
	unlock, ok, err := locker.TryLock(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.ErrorIs(t, runner.Handle(ctx, job.ID), ErrRetryLater)
	got, err := chats.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.JobQueued, got.Status)
	unlock()

	require.NoError(t, runner.Handle(ctx, job.ID))
	got, err = chats.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.JobSucceeded, got.Status)
	require.NotNil(t, got.ResultMessageID)

	msgs, err := chats.ListMessages(ctx, c.ID, chat.OrderAsc)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, *got.ResultMessageID, msgs[1].ID)

	// redelivery does not answer twice
	require.NoError(t, runner.Handle(ctx, job.ID))
	msgs, err = chats.ListMessages(ctx, c.ID, chat.OrderAsc)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestJobRunner_MissingChatFailsJob(t *testing.T) {
	gdb := dbtest.Open(t, &chat.Chat{}, &chat.Message{}, &chat.Job{}, &advisor.Advisor{})
	chats := chat.NewRepo(gdb)
	p := &fakeProvider{respond: replyWith(nil)}
	orch := NewOrchestrator(chats, advisor.NewRepo(gdb), fixedSource{p: p}, nil, zerolog.Nop())
	runner := NewJobRunner(chats, orch, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, chats.CreateJob(ctx, &chat.Job{ID: "01JOBGGGGGGGGGGGGGGGGGGGGG", ChatID: "gone", Content: "hi", Status: chat.JobQueued}))
	assert.ErrorIs(t, runner.Handle(ctx, "01JOBGGGGGGGGGGGGGGGGGGGGG"), chat.ErrNotFound)

	got, err := chats.GetJobByID(ctx, "01JOBGGGGGGGGGGGGGGGGGGGGG")
	require.NoError(t, err)
	assert.Equal(t, chat.JobFailed, got.Status)
	require.NotNil(t, got.Error)
}

func TestJobRunner_Abandon(t *testing.T) {
	gdb := dbtest.Open(t, &chat.Chat{}, &chat.Message{}, &chat.Job{}, &advisor.Advisor{})
	chats := chat.NewRepo(gdb)
	runner := NewJobRunner(chats, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, chats.CreateJob(ctx, &chat.Job{ID: "01JOBHHHHHHHHHHHHHHHHHHHHH", ChatID: "c", Content: "hi", Status: chat.JobQueued}))
	runner.Abandon(ctx, "01JOBHHHHHHHHHHHHHHHHHHHHH", "busy")

	got, err := chats.GetJobByID(ctx, "01JOBHHHHHHHHHHHHHHHHHHHHH")
	require.NoError(t, err)
	assert.Equal(t, chat.JobFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, "busy", *got.Error)
}
