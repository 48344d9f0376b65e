package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"supmap-guidance/internal/config"
	"supmap-guidance/internal/favorites"
	"supmap-guidance/internal/metrics"
	"supmap-guidance/internal/ws"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	store := favorites.NewStore(client)
	manager := ws.NewManager(context.Background(), logger, ws.Deps{Favorites: store, Metrics: metrics.New(reg)})
	go manager.Start()

	s := NewServer(&config.Config{}, manager, store, reg, logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		manager.Shutdown()
		srv.Close()
	})
	return s, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)

	res, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "API server is started.", body)
}

func TestMissingUserID(t *testing.T) {
	_, srv := newTestServer(t)

	for _, path := range []string{"/navigation", "/favorites"} {
		t.Run(path, func(t *testing.T) {
			res, _ := get(t, srv.URL+path)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		})
	}
}

func TestFavorites(t *testing.T) {
	_, srv := newTestServer(t)

	res, body := get(t, srv.URL+"/favorites?user_id=user-1")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var list []favorites.Location
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, len(favorites.Defaults))
	assert.Equal(t, favorites.Defaults[0].Name, list[0].Name)
}

func TestNavigationWebsocket(t *testing.T) {
	s, srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/navigation?user_id=user-1", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool {
		_, ok := s.WebsocketManager.Client("user-1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	_, body := get(t, srv.URL+"/metrics")
	assert.Contains(t, body, "guidance_connected_clients 1")
}
