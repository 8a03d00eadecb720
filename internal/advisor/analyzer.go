package advisor

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/ai"
)

// Config selects the model for one analysis call.
type Config struct {
	ModelName   string
	Temperature float64
}

// Sender is the part of ai.Gateway the analyzer needs.
type Sender interface {
	Send(ctx context.Context, messages []ai.Message, model string, opts ai.Options) (string, error)
}

// Analyzer runs the secondary analyses. An empty result with a nil error means the model
// produced nothing worth keeping.
type Analyzer struct {
	gw  Sender
	log zerolog.Logger
}

// NewAnalyzer wraps gw; pass a gateway built WithoutFallback since analyses never retry.
func NewAnalyzer(gw Sender, log zerolog.Logger) *Analyzer {
	return &Analyzer{gw: gw, log: log}
}

// AnalyzeConversation is the assistant analysis: the prompt followed by the whole
// conversation.
func (a *Analyzer) AnalyzeConversation(ctx context.Context, history []ai.Message, prompt string, cfg Config) (string, error) {
	if err := validate(prompt, cfg); err != nil {
		return "", err
	}
	msgs := make([]ai.Message, 0, len(history)+1)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: strings.TrimSpace(prompt)})
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := ai.RoleUser
		if m.Role != ai.RoleUser {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Content: content})
	}
	return a.send(ctx, KindAssistant, msgs, cfg)
}

// AnalyzeUtterance is the mentor analysis: it only sees the latest user message.
func (a *Analyzer) AnalyzeUtterance(ctx context.Context, utterance, prompt string, cfg Config) (string, error) {
	if err := validate(prompt, cfg); err != nil {
		return "", err
	}
	msgs := []ai.Message{
		{Role: ai.RoleSystem, Content: strings.TrimSpace(prompt)},
		{Role: ai.RoleUser, Content: strings.TrimSpace(utterance)},
	}
	return a.send(ctx, KindMentor, msgs, cfg)
}

func (a *Analyzer) send(ctx context.Context, kind Kind, msgs []ai.Message, cfg Config) (string, error) {
	out, err := a.gw.Send(ctx, msgs, cfg.ModelName, ai.Options{Temperature: cfg.Temperature})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		a.log.Debug().Str("kind", string(kind)).Str("model", cfg.ModelName).Msg("analysis returned nothing")
	}
	return out, nil
}

func validate(prompt string, cfg Config) error {
	if strings.TrimSpace(cfg.ModelName) == "" {
		return &ai.ConfigurationError{Msg: "No model configured for this advisor. Please set a model name."}
	}
	if strings.TrimSpace(prompt) == "" {
		return &ai.ConfigurationError{Msg: "No analysis prompt selected."}
	}
	return nil
}
