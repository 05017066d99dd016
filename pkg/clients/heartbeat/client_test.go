package heartbeat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegioelo/vagas/internal/config"
)

type recorded struct {
	path string
	body string
}

func monitor(t *testing.T, status int) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var hits []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		hits = append(hits, recorded{path: r.URL.Path, body: string(body)})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClientPings(t *testing.T) {
	srv, hits := monitor(t, http.StatusOK)
	client := NewClient(config.HeartbeatConfig{URL: srv.URL + "/ping/abc/"})

	require.NoError(t, client.Success(context.Background()))
	require.NoError(t, client.Failure(context.Background(), "authentication failed"))

	require.Len(t, *hits, 2)
	assert.Equal(t, "/ping/abc", (*hits)[0].path)
	assert.Equal(t, "/ping/abc/fail", (*hits)[1].path)
	assert.Equal(t, "authentication failed", (*hits)[1].body)
}

func TestClientMonitorError(t *testing.T) {
	srv, _ := monitor(t, http.StatusNotFound)
	client := NewClient(config.HeartbeatConfig{URL: srv.URL})

	err := client.Success(context.Background())

	assert.ErrorContains(t, err, "code=404")
}

func TestClientDisabled(t *testing.T) {
	client := NewClient(config.HeartbeatConfig{})

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Success(context.Background()))
	assert.NoError(t, client.Failure(context.Background(), "ignored"))
}
