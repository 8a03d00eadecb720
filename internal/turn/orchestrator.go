package turn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/advisor"
	"github.com/suPer8Hu/mentor-chat/internal/ai"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/logging"
	"github.com/suPer8Hu/mentor-chat/internal/metrics"
	"github.com/suPer8Hu/mentor-chat/internal/settings"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyContent   = errors.New("message content is empty")
	ErrTurnInProgress = errors.New("a reply is already being generated for this chat")
)

// Replies persisted when the main model gives no usable answer.
const (
	ReplyEmpty   = "Sorry, I encountered an error processing your request. Please try again."
	ReplyFailed  = "An error occurred while processing your message. Please try again."
	ReplyStopped = "Generation stopped."
)

// maxTurnDuration bounds a turn once it no longer follows the caller's context.
const maxTurnDuration = 10 * time.Minute

type Status string

const (
	StatusCompleted Status = "completed"
	// StatusDegraded: a step after the user message failed; the reply explains what.
	StatusDegraded  Status = "degraded"
	StatusCancelled Status = "cancelled"
)

// Request is one user turn. The prompts are resolved text; a blank AssistantPrompt or
// MentorPrompt falls back to the default advisor's own system prompt.
type Request struct {
	ChatID          string
	Content         string
	SystemPrompt    string
	AssistantPrompt string
	MentorPrompt    string

	// OnChunk, when set, streams the main reply as it is generated.
	OnChunk func(string)
}

type Result struct {
	UserMessage      *chat.Message `json:"user_message"`
	AssistantMessage *chat.Message `json:"assistant_message,omitempty"`
	MentorMessage    *chat.Message `json:"mentor_message,omitempty"`
	Reply            *chat.Message `json:"reply"`
	Status           Status        `json:"status"`
}

// GatewaySource yields the gateway and main-model parameters from the current settings.
type GatewaySource interface {
	Gateway(ctx context.Context) (*ai.Gateway, settings.MainParams, error)
}

type Orchestrator struct {
	chats    *chat.Repo
	advisors *advisor.Repo
	gateways GatewaySource
	locker   Locker
	cancels  *cancelRegistry
	log      zerolog.Logger
}

func NewOrchestrator(chats *chat.Repo, advisors *advisor.Repo, gateways GatewaySource, locker Locker, log zerolog.Logger) *Orchestrator {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Orchestrator{
		chats:    chats,
		advisors: advisors,
		gateways: gateways,
		locker:   locker,
		cancels:  newCancelRegistry(),
		log:      log,
	}
}

// Stop cancels the turn currently running for chatID in this process.
func (o *Orchestrator) Stop(chatID string) bool {
	return o.cancels.stop(chatID)
}

// Run executes a turn. Once the user message is stored the turn always ends with an ai
// message; the only errors returned after that point are failures to store it.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if _, err := o.chats.GetChat(ctx, req.ChatID); err != nil {
		return nil, err
	}

	unlock, ok, err := o.locker.TryLock(ctx, req.ChatID)
	if err != nil {
		return nil, fmt.Errorf("acquire turn lock: %w", err)
	}
	if !ok {
		return nil, ErrTurnInProgress
	}
	defer unlock()

	ctx = logging.WithChatID(ctx, req.ChatID)
	log := logging.From(ctx, o.log)

	prior, err := o.chats.ListMessages(ctx, req.ChatID, chat.OrderAsc)
	if err != nil {
		return nil, err
	}
	userMsg, err := o.chats.AppendMessage(ctx, req.ChatID, chat.RoleUser, content)
	if err != nil {
		return nil, err
	}
	log.Info().Str("content", logging.Preview(content, 80)).Int("prior", len(prior)).Msg("turn started")

	// only Stop ends a turn early; a caller that goes away still gets its reply stored
	turnCtx, cancelTimeout := context.WithTimeout(context.WithoutCancel(ctx), maxTurnDuration)
	defer cancelTimeout()
	turnCtx, release := o.cancels.register(turnCtx, req.ChatID)
	defer release()

	res := &Result{UserMessage: userMsg}
	t := &turnState{o: o, log: log, req: req, content: content, prior: prior, res: res}
	reply, status := t.respond(turnCtx)

	// the reply is stored even when the caller has gone away
	persistCtx := context.WithoutCancel(ctx)
	aiMsg, err := o.chats.AppendMessage(persistCtx, req.ChatID, chat.RoleAI, reply)
	if err != nil {
		log.Error().Err(err).Msg("persist reply failed")
		return res, fmt.Errorf("persist reply: %w", err)
	}
	res.Reply = aiMsg
	res.Status = status
	metrics.TurnFinished(string(status))
	log.Info().Str("status", string(status)).Str("reply", logging.Preview(reply, 80)).Msg("turn finished")
	return res, nil
}

// turnState carries one turn from the stored user message to the reply text.
type turnState struct {
	o       *Orchestrator
	log     zerolog.Logger
	req     Request
	content string
	prior   []chat.Message
	res     *Result

	degraded bool
}

func (t *turnState) respond(ctx context.Context) (reply string, status Status) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Msg("turn panicked")
			reply, status = ReplyFailed, StatusDegraded
		}
	}()

	if len(t.prior) == 0 {
		if err := t.o.chats.UpdateChatTitle(ctx, t.req.ChatID, chat.DeriveTitle(t.content)); err != nil {
			t.log.Warn().Err(err).Msg("set chat title failed")
			t.degraded = true
		}
	}

	history := chat.ConversationHistory(t.prior, t.content)
	exchanges := chat.CountExchanges(history)

	gw, params, err := t.o.gateways.Gateway(ctx)
	if err != nil {
		return t.failure(ctx, err)
	}

	assistantText, mentorText := t.analyse(ctx, gw.WithoutFallback(), history, exchanges)

	final := make([]ai.Message, 0, len(history)+1)
	if system := ComposeSystemPrompt(t.req.SystemPrompt, assistantText, mentorText); system != "" {
		final = append(final, ai.Message{Role: ai.RoleSystem, Content: system})
	}
	final = append(final, history...)

	var out string
	if t.req.OnChunk != nil {
		var b strings.Builder
		err = gw.SendStream(ctx, final, params.Model, func(c string) {
			b.WriteString(c)
			t.req.OnChunk(c)
		}, params.Options)
		out = b.String()
	} else {
		out, err = gw.Send(ctx, final, params.Model, params.Options)
	}

	if ctx.Err() != nil {
		t.log.Info().Err(context.Cause(ctx)).Msg("turn cancelled")
		if strings.TrimSpace(out) != "" {
			return out, StatusCancelled
		}
		return ReplyStopped, StatusCancelled
	}
	if err != nil {
		return t.failure(ctx, err)
	}
	if strings.TrimSpace(out) == "" {
		t.log.Warn().Str("model", params.Model).Msg("main model returned an empty reply")
		return ReplyEmpty, StatusDegraded
	}
	if t.degraded {
		return out, StatusDegraded
	}
	return out, StatusCompleted
}

func (t *turnState) failure(ctx context.Context, err error) (string, Status) {
	if ctx.Err() != nil {
		return ReplyStopped, StatusCancelled
	}
	if msg, ok := ai.UserFacing(err); ok {
		t.log.Warn().Err(err).Msg("main reply failed")
		return msg, StatusDegraded
	}
	t.log.Error().Err(err).Msg("main reply failed")
	return ReplyFailed, StatusDegraded
}

// analyse runs the triggered advisors concurrently and stores their output, assistant
// first. A failed analysis is logged and dropped; the turn goes on without it.
func (t *turnState) analyse(ctx context.Context, gw *ai.Gateway, history []ai.Message, exchanges int) (assistantText, mentorText string) {
	assistantCfg := t.pick(ctx, advisor.KindAssistant, t.req.AssistantPrompt, exchanges)
	mentorCfg := t.pick(ctx, advisor.KindMentor, t.req.MentorPrompt, exchanges)
	if assistantCfg == nil && mentorCfg == nil {
		return "", ""
	}

	an := advisor.NewAnalyzer(gw, t.log)
	var g errgroup.Group
	if assistantCfg != nil {
		g.Go(func() error {
			out, err := guard(func() (string, error) {
				return an.AnalyzeConversation(ctx, history, assistantCfg.prompt, assistantCfg.cfg)
			})
			assistantText = t.outcome(advisor.KindAssistant, out, err)
			return nil
		})
	}
	if mentorCfg != nil {
		g.Go(func() error {
			out, err := guard(func() (string, error) {
				return an.AnalyzeUtterance(ctx, t.content, mentorCfg.prompt, mentorCfg.cfg)
			})
			mentorText = t.outcome(advisor.KindMentor, out, err)
			return nil
		})
	}
	_ = g.Wait()

	if assistantText != "" {
		msg, err := t.o.chats.AppendMessage(ctx, t.req.ChatID, chat.RoleAssistant, assistantText)
		if err != nil {
			t.log.Error().Err(err).Msg("persist assistant analysis failed")
			t.degraded = true
		}
		t.res.AssistantMessage = msg
	}
	if mentorText != "" {
		msg, err := t.o.chats.AppendMessage(ctx, t.req.ChatID, chat.RoleMentor, mentorText)
		if err != nil {
			t.log.Error().Err(err).Msg("persist mentor analysis failed")
			t.degraded = true
		}
		t.res.MentorMessage = msg
	}
	return assistantText, mentorText
}

// guard turns a panic inside an analysis into an error. The errgroup goroutines are outside
// respond's recover.
func guard(f func() (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	return f()
}

type pickedAdvisor struct {
	prompt string
	cfg    advisor.Config
}

// pick returns the advisor to run for kind, or nil when none is configured, no prompt is
// available or the exchange count does not trigger it.
func (t *turnState) pick(ctx context.Context, kind advisor.Kind, prompt string, exchanges int) *pickedAdvisor {
	def, err := t.o.advisors.GetDefault(ctx, kind)
	if err != nil {
		t.log.Warn().Err(err).Str("kind", string(kind)).Msg("load default advisor failed")
		t.degraded = true
		return nil
	}
	if def == nil {
		return nil
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = def.SystemPrompt
	}
	if strings.TrimSpace(prompt) == "" {
		return nil
	}
	if !advisor.ShouldTrigger(kind, exchanges, def.ActiveAfter()) {
		return nil
	}
	t.log.Debug().Str("kind", string(kind)).Str("advisor", def.Name).Int("exchanges", exchanges).Msg("advisor triggered")
	return &pickedAdvisor{prompt: prompt, cfg: def.Config()}
}

func (t *turnState) outcome(kind advisor.Kind, out string, err error) string {
	switch {
	case err != nil:
		t.log.Warn().Err(err).Str("kind", string(kind)).Msg("analysis failed")
		metrics.AdvisorAnalysis(string(kind), "failed")
		return ""
	case out == "":
		metrics.AdvisorAnalysis(string(kind), "empty")
		return ""
	default:
		metrics.AdvisorAnalysis(string(kind), "produced")
		return out
	}
}
