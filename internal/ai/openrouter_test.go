package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterChat_SendsWireContract(t *testing.T) {
	var got openRouterChatReq
	var auth, referer, title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		referer = r.Header.Get("HTTP-Referer")
		title = r.Header.Get("X-Title")
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Hi there!"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "sk-test", "http://localhost", "Mentor Chat")
	reply, err := p.Chat(context.Background(), "openai/gpt-4o", []Message{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "Hello"},
	}, Options{Temperature: 0.3, MaxTokens: 256})
	require.NoError(t, err)

	assert.Equal(t, "Hi there!", reply)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "http://localhost", referer)
	assert.Equal(t, "Mentor Chat", title)
	assert.Equal(t, "openai/gpt-4o", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 256, got.MaxTokens)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
}

func TestOpenRouterChat_MissingSettingsFailBeforeNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	_, err := NewOpenRouterProvider(srv.URL, "", "", "").Chat(context.Background(), "m", nil, Options{})
	assert.True(t, IsConfigurationError(err))

	_, err = NewOpenRouterProvider(srv.URL, "sk", "", "").Chat(context.Background(), "  ", nil, Options{})
	assert.True(t, IsConfigurationError(err))

	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestOpenRouterChat_ClassifiesStatus(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "malformed"},
		{http.StatusUnauthorized, "API key"},
		{http.StatusTooManyRequests, "rate limit"},
		{http.StatusBadGateway, "temporarily unavailable"},
		{http.StatusServiceUnavailable, "temporarily unavailable"},
		{http.StatusGatewayTimeout, "temporarily unavailable"},
		{http.StatusPaymentRequired, "unexpected error"},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"error":{"message":"upstream said no"}}`)
			}))
			defer srv.Close()

			_, err := NewOpenRouterProvider(srv.URL, "sk", "", "").Chat(context.Background(), "m", nil, Options{})
			var gwErr *GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tc.status, gwErr.Status)
			assert.Equal(t, "upstream said no", gwErr.Detail)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestOpenRouterStreamChat_SkipsMalformedLinesAndStopsAtDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openRouterChatReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		lines := []string{
			`: keep-alive`,
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			`data: {not json`,
			`data: {"choices":[{"delta":{}}]}`,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"ignored"}}]}`,
		}
		fmt.Fprint(w, strings.Join(lines, "\n")+"\n")
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "sk", "", "")
	chunks, errs := p.StreamChat(context.Background(), "m", []Message{{Role: RoleUser, Content: "hi"}}, Options{})

	var got []string
	for c := range chunks {
		got = append(got, c)
	}
	assert.NoError(t, <-errs)
	assert.Equal(t, []string{"Hel", "lo"}, got)
}

func TestOpenRouterStreamChat_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	chunks, errs := NewOpenRouterProvider(srv.URL, "sk", "", "").StreamChat(context.Background(), "m", nil, Options{})
	for range chunks {
		t.Fatal("unexpected chunk")
	}
	var gwErr *GatewayError
	require.True(t, errors.As(<-errs, &gwErr))
	assert.Equal(t, http.StatusUnauthorized, gwErr.Status)
}
