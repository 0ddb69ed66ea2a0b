package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/internal/stream"
	"ecgrisk/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEHubRoutesBySession(t *testing.T) {
	hub := NewSSEHub()
	defer hub.Close()

	a, b := core.NewSessionID(), core.NewSessionID()
	events, unsubscribe := hub.Subscribe(a)
	defer unsubscribe()
	require.Eventually(t, func() bool { return hub.ClientCount(a) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, hub.PublishFrame(context.Background(), ports.Frame{SessionID: b, Offset: 1}))
	require.NoError(t, hub.PublishFrame(context.Background(), ports.Frame{SessionID: a, Offset: 2}))
	require.NoError(t, hub.PublishPrediction(context.Background(), a, model.Prediction{Value: 0.4}))

	select {
	case ev := <-events:
		assert.Equal(t, EventFrame, ev.Type)
		assert.Equal(t, 2, ev.Data.(ports.Frame).Offset)
	case <-time.After(time.Second):
		t.Fatal("no frame event")
	}
	select {
	case ev := <-events:
		assert.Equal(t, EventPrediction, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no prediction event")
	}
	assert.ElementsMatch(t, []core.SessionID{a}, hub.ActiveSessions())

	unsubscribe()
	require.Eventually(t, func() bool { return hub.ClientCount(a) == 0 }, time.Second, time.Millisecond)
}

func TestWSHubSendsBinaryThenParams(t *testing.T) {
	hub := NewWSHub()
	id := core.NewSessionID()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, id)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(id) == 1 }, time.Second, time.Millisecond)

	f := ports.Frame{SessionID: id, Window: []float64{0.5, -1, 2}, Offset: 6, Playing: true, At: time.Unix(3, 0)}
	require.NoError(t, hub.PublishFrame(context.Background(), f))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	samples, err := stream.DecodeSamples(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 2}, samples)

	kind, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	var msg stream.ParamMsg
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, 6, msg.Offset)
	assert.True(t, msg.Playing)
	assert.Equal(t, int64(3000), msg.Ts)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(id) == 0 }, time.Second, time.Millisecond)
}
