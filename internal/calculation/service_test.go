package calculation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/mentor-chat/internal/ai"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/db/dbtest"
	"github.com/suPer8Hu/mentor-chat/internal/prompt"
	"github.com/suPer8Hu/mentor-chat/internal/settings"
	"gorm.io/gorm"
)

type echoProvider struct {
	last  []ai.Message
	model string
}

func (p *echoProvider) Chat(ctx context.Context, model string, messages []ai.Message, opts ai.Options) (string, error) {
	p.last = messages
	p.model = model
	return " score: 7 ", nil
}

type staticSource struct{ p ai.Provider }

func (s staticSource) Gateway(ctx context.Context) (*ai.Gateway, settings.MainParams, error) {
	return ai.NewGateway(s.p, "", zerolog.Nop()), settings.MainParams{Model: "main"}, nil
}

type fixture struct {
	db       *gorm.DB
	chats    *chat.Repo
	prompts  *prompt.Repo
	settings *settings.Repo
	repo     *Repo
	provider *echoProvider
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.Open(t, &chat.Chat{}, &chat.Message{}, &prompt.Prompt{},
		&settings.APISettings{}, &settings.CalculationSettings{}, &ChatAnalysis{})
	f := &fixture{
		db:       gdb,
		chats:    chat.NewRepo(gdb),
		prompts:  prompt.NewRepo(gdb),
		settings: settings.NewRepo(gdb, nil),
		repo:     NewRepo(gdb),
		provider: &echoProvider{},
	}
	f.chats.OnDelete(DeleteInTx)
	f.svc = NewService(f.chats, f.prompts, f.settings, f.repo, staticSource{f.provider}, zerolog.Nop())
	return f
}

func TestRepo_SaveKeepsOneAnalysisPerChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, r := range []string{"first", "second", "third"} {
		require.NoError(t, f.repo.Save(ctx, &ChatAnalysis{ChatID: "c1", Result: r}))
	}
	require.NoError(t, f.repo.Save(ctx, &ChatAnalysis{ChatID: "c2", Result: "other"}))

	got, err := f.repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "third", got.Result)

	var n int64
	require.NoError(t, f.db.Model(&ChatAnalysis{}).Where("chat_id = ?", "c1").Count(&n).Error)
	assert.EqualValues(t, 1, n)

	require.NoError(t, f.repo.Delete(ctx, "c1"))
	_, err = f.repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_RunAnalysesConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.chats.CreateChat(ctx, "")
	require.NoError(t, err)
	for _, m := range []struct {
		role    chat.Role
		content string
	}{
		{chat.RoleUser, "q1"}, {chat.RoleAI, "a1"}, {chat.RoleAssistant, "hidden"}, {chat.RoleUser, "q2"},
	} {
		_, err := f.chats.AppendMessage(ctx, c.ID, m.role, m.content)
		require.NoError(t, err)
	}
	p, err := f.prompts.Create(ctx, "Score", "Rate the learner.", prompt.TargetCalculate)
	require.NoError(t, err)
	model := "calc-model"
	_, err = f.settings.SaveCalculationSettings(ctx, settings.CalculationPatch{ModelName: &model})
	require.NoError(t, err)

	a, err := f.svc.Run(ctx, c.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "score: 7", a.Result)
	assert.Equal(t, "Score", a.PromptName)
	assert.Equal(t, "calc-model", f.provider.model)
	assert.Equal(t, []ai.Message{
		{Role: ai.RoleSystem, Content: "Rate the learner."},
		{Role: ai.RoleUser, Content: "q1"},
		{Role: ai.RoleAssistant, Content: "a1"},
		{Role: ai.RoleUser, Content: "q2"},
	}, f.provider.last)

	// deleting the chat takes the analysis with it
	require.NoError(t, f.chats.DeleteChat(ctx, c.ID))
	_, err = f.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_RunWithoutSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.chats.CreateChat(ctx, "")
	require.NoError(t, err)
	p, err := f.prompts.Create(ctx, "Score", "x", prompt.TargetCalculate)
	require.NoError(t, err)

	_, err = f.svc.Run(ctx, c.ID, p.ID)
	assert.True(t, ai.IsConfigurationError(err))
	assert.Nil(t, f.provider.last)
}
