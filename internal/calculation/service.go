package calculation

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/ai"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/prompt"
	"github.com/suPer8Hu/mentor-chat/internal/settings"
)

var ErrNoConversation = errors.New("chat has no conversation to analyse")

// GatewaySource yields the gateway for the configured provider.
type GatewaySource interface {
	Gateway(ctx context.Context) (*ai.Gateway, settings.MainParams, error)
}

// Service runs a calculation prompt over a chat and caches the result.
type Service struct {
	chats    *chat.Repo
	prompts  *prompt.Repo
	settings *settings.Repo
	analyses *Repo
	gateways GatewaySource
	log      zerolog.Logger
}

func NewService(chats *chat.Repo, prompts *prompt.Repo, st *settings.Repo, analyses *Repo, gateways GatewaySource, log zerolog.Logger) *Service {
	return &Service{chats: chats, prompts: prompts, settings: st, analyses: analyses, gateways: gateways, log: log}
}

func (s *Service) Get(ctx context.Context, chatID string) (*ChatAnalysis, error) {
	return s.analyses.Get(ctx, chatID)
}

func (s *Service) Delete(ctx context.Context, chatID string) error {
	return s.analyses.Delete(ctx, chatID)
}

// Run analyses the chat's user/ai history with promptID and the calculation model, then
// replaces the chat's cached analysis.
func (s *Service) Run(ctx context.Context, chatID, promptID string) (*ChatAnalysis, error) {
	if _, err := s.chats.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	p, err := s.prompts.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}
	cs, err := s.settings.GetCalculationSettings(ctx)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, &ai.ConfigurationError{Msg: "Calculation settings not configured. Please set up the model and temperature in calculation settings."}
	}
	if strings.TrimSpace(cs.ModelName) == "" {
		return nil, &ai.ConfigurationError{Msg: "No model specified in calculation settings."}
	}

	msgs, err := s.chats.ListMessages(ctx, chatID, chat.OrderAsc)
	if err != nil {
		return nil, err
	}
	history := chat.ConversationHistory(msgs, "")
	if len(history) == 0 {
		return nil, ErrNoConversation
	}

	gw, _, err := s.gateways.Gateway(ctx)
	if err != nil {
		return nil, err
	}
	wire := append([]ai.Message{{Role: ai.RoleSystem, Content: p.Content}}, history...)
	result, err := gw.WithoutFallback().Send(ctx, wire, cs.ModelName, ai.Options{Temperature: cs.Temperature})
	if err != nil {
		return nil, err
	}

	a := &ChatAnalysis{
		ChatID:        chatID,
		PromptID:      p.ID,
		PromptName:    p.Name,
		PromptContent: p.Content,
		ModelName:     cs.ModelName,
		Temperature:   cs.Temperature,
		Result:        strings.TrimSpace(result),
	}
	if err := s.analyses.Save(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info().Str("chat_id", chatID).Str("prompt", p.Name).Int("history", len(history)).Msg("chat analysis saved")
	return a, nil
}
