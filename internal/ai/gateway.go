package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/metrics"
)

// DefaultFallbackModel is the free model tried once when the primary model fails.
const DefaultFallbackModel = "meta-llama/llama-3.1-8b-instruct:free"

// Gateway is the single entry point for completion calls. It validates the model before
// touching the network and, when FallbackModel is set, retries a failed call exactly once
// against it.
type Gateway struct {
	provider      Provider
	fallbackModel string
	log           zerolog.Logger
}

func NewGateway(provider Provider, fallbackModel string, log zerolog.Logger) *Gateway {
	return &Gateway{
		provider:      provider,
		fallbackModel: strings.TrimSpace(fallbackModel),
		log:           log,
	}
}

// WithoutFallback returns a copy of g that never retries.
func (g *Gateway) WithoutFallback() *Gateway {
	cp := *g
	cp.fallbackModel = ""
	return &cp
}

func (g *Gateway) Send(ctx context.Context, messages []Message, model string, opts Options) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", configErrorf("No model specified. Please configure a model in settings.")
	}

	reply, err := g.call(ctx, model, messages, opts)
	if err == nil {
		return reply, nil
	}
	if !g.shouldFallback(ctx, model, err) {
		return "", err
	}

	g.log.Warn().Err(err).
		Str("model", model).
		Str("fallback_model", g.fallbackModel).
		Msg("primary model failed, retrying with fallback")
	metrics.GatewayFallback(model, g.fallbackModel)

	return g.call(ctx, g.fallbackModel, messages, opts)
}

func (g *Gateway) shouldFallback(ctx context.Context, model string, err error) bool {
	if g.fallbackModel == "" || g.fallbackModel == model {
		return false
	}
	if IsConfigurationError(err) || ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func (g *Gateway) call(ctx context.Context, model string, messages []Message, opts Options) (string, error) {
	start := time.Now()
	reply, err := g.provider.Chat(ctx, model, messages, opts)
	metrics.ObserveGatewayCall(model, outcome(ctx, err), time.Since(start).Milliseconds())
	if err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			g.log.Error().Int("status", gwErr.Status).Str("detail", gwErr.Detail).Str("model", model).Msg("gateway call failed")
		}
		return "", err
	}
	return reply, nil
}

// SendStream streams the reply through onChunk. There is no fallback on this path.
func (g *Gateway) SendStream(ctx context.Context, messages []Message, model string, onChunk func(string), opts Options) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return configErrorf("No model specified. Please configure a model in settings.")
	}
	sp, ok := g.provider.(StreamProvider)
	if !ok {
		return errors.New("provider does not support streaming")
	}

	start := time.Now()
	chunks, errs := sp.StreamChat(ctx, model, messages, opts)
	for c := range chunks {
		onChunk(c)
	}
	err := <-errs
	metrics.ObserveGatewayCall(model, outcome(ctx, err), time.Since(start).Milliseconds())
	return err
}

func outcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "ok"
	case ctx.Err() != nil:
		return "canceled"
	default:
		return "error"
	}
}
