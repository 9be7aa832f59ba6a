package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsight/internal/operations"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_BroadcastReachesConnectedClient(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Shutdown()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, ServeWS(hub, w, r, testLogger()))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	sent := operations.ProgressEvent{
		Type:     operations.EventRunStarted,
		RunID:    "run-1",
		Pipeline: operations.PipelineRetail,
		Status:   operations.RunStatusRunning,
	}
	hub.BroadcastProgress(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got operations.ProgressEvent
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, sent.Type, got.Type)
	assert.Equal(t, sent.RunID, got.RunID)
	assert.Equal(t, sent.Pipeline, got.Pipeline)
}

func TestHub_ClientUnregisteredOnClose(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Shutdown()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, ServeWS(hub, w, r, testLogger()))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	hub.Shutdown()

	done := make(chan struct{})
	go func() {
		hub.BroadcastProgress(operations.ProgressEvent{Type: operations.EventRunCompleted})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after shutdown")
	}
}
