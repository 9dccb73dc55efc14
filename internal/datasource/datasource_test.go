package datasource

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fastClientConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 2
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	cfg.RateLimit = 1000
	return cfg
}

func TestRaceLapsDecodesResponse(t *testing.T) {
	laps := []models.Lap{
		{Season: 2025, Round: 3, Driver: "VER", Stint: 1, Compound: "SOFT", LapNumber: 1},
		{Season: 2025, Round: 3, Driver: "VER", Stint: 1, Compound: "SOFT", LapNumber: 12, PitTime: 22.4},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("round"))
		assert.Equal(t, "2025", r.URL.Query().Get("season"))
		require.NoError(t, json.NewEncoder(w).Encode(laps))
	}))
	defer srv.Close()

	client := NewTimingClient(srv.URL, 1000, quietLogger())
	defer client.Close()

	got, err := client.RaceLaps(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, laps, got)
}

func TestRaceLapsUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewTimingClient(srv.URL, 1000, quietLogger())
	defer client.Close()

	_, err := client.RaceLaps(context.Background(), 2025, 99)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewRateLimitedHTTPClient(fastClientConfig(), quietLogger())
	defer client.Close()

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // every request now fails to connect

	cfg := fastClientConfig()
	cfg.MaxRetries = 0
	cfg.CircuitBreakerMax = 2
	client := NewRateLimitedHTTPClient(cfg, quietLogger())
	defer client.Close()

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), srv.URL)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := client.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestLiveTimingStreamDeliversUpdates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// wait for the subscription, then push one update
		var sub subscribeMessage
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "subscribe", sub.Op)
		assert.Equal(t, 2025, sub.Season)

		require.NoError(t, conn.WriteJSON(SessionUpdate{
			Type: "lap", Season: 2025, Round: 4, Driver: "NOR", Lap: 17, Position: 2,
		}))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client := NewLiveTimingClient(wsURL, quietLogger())
	defer client.Close()

	received := make(chan *SessionUpdate, 1)
	client.AddHandler(func(update *SessionUpdate) error {
		received <- update
		return nil
	})

	require.NoError(t, client.Connect(context.Background()))
	assert.True(t, client.IsConnected())
	assert.ErrorIs(t, client.Connect(context.Background()), ErrAlreadyConnected)

	require.NoError(t, client.Subscribe(2025, 4))

	select {
	case update := <-received:
		assert.Equal(t, "lap", update.Type)
		assert.Equal(t, "NOR", update.Driver)
		assert.Equal(t, 17, update.Lap)
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}
}

func TestStreamSubscribeBeforeConnect(t *testing.T) {
	client := NewLiveTimingClient("ws://localhost:0", quietLogger())
	assert.ErrorIs(t, client.Subscribe(2025, 1), ErrNotConnected)
}
