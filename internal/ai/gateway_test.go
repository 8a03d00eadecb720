package ai

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider answers per model; models missing from replies fail with err.
type scriptedProvider struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	models  []string
}

func (p *scriptedProvider) Chat(ctx context.Context, model string, messages []Message, opts Options) (string, error) {
	p.mu.Lock()
	p.models = append(p.models, model)
	p.mu.Unlock()
	if r, ok := p.replies[model]; ok {
		return r, nil
	}
	return "", p.err
}

func (p *scriptedProvider) StreamChat(ctx context.Context, model string, messages []Message, opts Options) (<-chan string, <-chan error) {
	chunks := make(chan string, 3)
	errs := make(chan error, 1)
	chunks <- "a"
	chunks <- "b"
	close(chunks)
	close(errs)
	return chunks, errs
}

func TestGatewaySend_EmptyModelIsConfigurationError(t *testing.T) {
	p := &scriptedProvider{}
	g := NewGateway(p, DefaultFallbackModel, zerolog.Nop())

	_, err := g.Send(context.Background(), nil, "", Options{})
	assert.True(t, IsConfigurationError(err))
	assert.Empty(t, p.models, "no provider call expected")
}

func TestGatewaySend_FallsBackOnce(t *testing.T) {
	p := &scriptedProvider{
		replies: map[string]string{"fallback": "from fallback"},
		err:     &GatewayError{Provider: "OpenRouter", Status: http.StatusServiceUnavailable},
	}
	g := NewGateway(p, "fallback", zerolog.Nop())

	reply, err := g.Send(context.Background(), nil, "primary", Options{})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", reply)
	assert.Equal(t, []string{"primary", "fallback"}, p.models)
}

func TestGatewaySend_FallbackFailurePropagates(t *testing.T) {
	p := &scriptedProvider{err: &GatewayError{Provider: "OpenRouter", Status: http.StatusServiceUnavailable}}
	g := NewGateway(p, "fallback", zerolog.Nop())

	_, err := g.Send(context.Background(), nil, "primary", Options{})
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, []string{"primary", "fallback"}, p.models)
}

func TestGatewaySend_NoRetryWhenDisabledOrSameModel(t *testing.T) {
	p := &scriptedProvider{err: errors.New("boom")}

	_, err := NewGateway(p, "fallback", zerolog.Nop()).WithoutFallback().Send(context.Background(), nil, "primary", Options{})
	require.Error(t, err)
	_, err = NewGateway(p, "primary", zerolog.Nop()).Send(context.Background(), nil, "primary", Options{})
	require.Error(t, err)

	assert.Equal(t, []string{"primary", "primary"}, p.models)
}

func TestGatewaySend_NoRetryAfterCancel(t *testing.T) {
	p := &scriptedProvider{err: context.Canceled}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGateway(p, "fallback", zerolog.Nop()).Send(ctx, nil, "primary", Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"primary"}, p.models)
}

func TestGatewaySendStream_DeliversChunks(t *testing.T) {
	g := NewGateway(&scriptedProvider{}, "", zerolog.Nop())

	var got []string
	err := g.SendStream(context.Background(), nil, "m", func(s string) { got = append(got, s) }, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}
