package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecgrisk/domain/model"
	"ecgrisk/internal/usage"
	"ecgrisk/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpsHealthz(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		want   string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"healthy", map[string]HealthCheck{"db": func(context.Context) error { return nil }}, http.StatusOK, "ok"},
		{"failing", map[string]HealthCheck{"nats": func(context.Context) error { return errors.New("disconnected") }}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewOpsRouter(OpsDeps{Checks: tt.checks}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.status, rec.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Status)
			assert.Len(t, body.Checks, len(tt.checks))
		})
	}
}

func TestOpsMetrics(t *testing.T) {
	meter := usage.NewService()
	ctx := context.Background()
	require.NoError(t, meter.PublishFrame(ctx, ports.Frame{SessionID: "s1", Window: make([]float64, 10)}))
	require.NoError(t, meter.PublishPrediction(ctx, "s1", model.Prediction{Value: 0.9}))

	hub := NewWSHub()
	router := NewOpsRouter(OpsDeps{Usage: meter, WS: hub, Sessions: func() int { return 3 }})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ecgrisk_frames_total 1\n")
	assert.Contains(t, body, "ecgrisk_predictions_total 1\n")
	assert.Contains(t, body, "ecgrisk_lvsd_predictions_total 1\n")
	assert.Contains(t, body, "ecgrisk_sample_bytes_total 40\n")
	assert.Contains(t, body, "ecgrisk_sessions 3\n")
	assert.Contains(t, body, "ecgrisk_ws_clients 0\n")
	assert.NotContains(t, body, "ecgrisk_sse_clients")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/sessions", nil))
	var sessions []usage.SessionUsage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(1), sessions[0].Frames)
}
