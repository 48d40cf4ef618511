package discord

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dmr/internal/providers"
	"dmr/internal/structures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientTestLogger struct{}

func (m *clientTestLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *clientTestLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *clientTestLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *clientTestLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *clientTestLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *clientTestLogger) Close()                                                  {}

func newTestClient(baseURL string) MessageSource {
	conf := &structures.Config{
		Discord: structures.DiscordConfig{
			BaseURL: baseURL,
			Token:   "secret-token",
			Timeout: 5 * time.Second,
		},
	}
	return NewClient(conf, &clientTestLogger{})
}

func TestClient_GetMessagesOK(t *testing.T) {
	var gotPath, gotAuth, gotBefore, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBefore = r.URL.Query().Get("before")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": "2", "channel_id": "42", "content": "b", "timestamp": "2023-01-02T00:00:00Z"},
			{"id": "1", "channel_id": "42", "content": "a", "timestamp": "2023-01-01T00:00:00Z"}]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	msgs, err := c.GetMessages(context.Background(), "42", "1000", 100)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[0].ID)
	assert.Equal(t, "/channels/42/messages", gotPath)
	assert.Equal(t, "Bot secret-token", gotAuth)
	assert.Equal(t, "1000", gotBefore)
	assert.Equal(t, "100", gotLimit)
}

func TestClient_EmptyCursorOmitsBefore(t *testing.T) {
	var hasBefore bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBefore = r.URL.Query().Has("before")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	msgs, err := c.GetMessages(context.Background(), "42", "", 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.False(t, hasBefore)
}

func TestClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2.5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetMessages(context.Background(), "42", "", 100)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 2500*time.Millisecond, rle.RetryAfter)
}

func TestClient_RateLimitedWithoutHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetMessages(context.Background(), "42", "", 100)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Zero(t, rle.RetryAfter)
}

func TestClient_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetMessages(context.Background(), "42", "", 100)
	var te *TransientError
	assert.ErrorAs(t, err, &te)
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := newTestClient(srv.URL)
	_, err := c.GetMessages(context.Background(), "42", "", 100)
	var te *TransientError
	assert.ErrorAs(t, err, &te)
}

func TestClient_ClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "Missing Access"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetMessages(context.Background(), "42", "", 100)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Body, "Missing Access")

	var te *TransientError
	assert.False(t, errors.As(err, &te))
}

func TestClient_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(srv.URL)
	_, err := c.GetMessages(ctx, "42", "", 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{broken`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetMessages(context.Background(), "42", "", 100)
	assert.Error(t, err)
}
