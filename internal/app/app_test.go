package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-chth/KaoDuenMate-VER2/internal/auth"
	"github.com/p-chth/KaoDuenMate-VER2/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address:         "127.0.0.1:0",
			ShutdownTimeout: time.Second,
			RequestTimeout:  time.Second,
		},
		Storage: config.StorageConfig{Driver: "memory"},
		Auth:    config.AuthConfig{JWTSecret: "app-secret", Issuer: "kaoduen-mate"},
		Tracker: config.TrackerConfig{Timezone: "UTC", UpcomingLimit: 3},
		Feed:    config.FeedConfig{BufferSize: 4, Heartbeat: time.Second},
	}
}

func TestNew_PostgresWithoutDB(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "postgres"

	_, err := New(cfg, zerolog.Nop(), nil)
	assert.Error(t, err)
}

func TestNew_BadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Tracker.Timezone = "Mars/Olympus"

	_, err := New(cfg, zerolog.Nop(), nil)
	assert.Error(t, err)
}

func TestHandler_ServesAuthenticatedAPI(t *testing.T) {
	cfg := testConfig()
	a, err := New(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)

	token, err := auth.NewIssuer(cfg.Auth).Issue("user-1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	a, err := New(testConfig(), zerolog.Nop(), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
