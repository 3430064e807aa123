package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type downPinger struct{}

func (downPinger) PingContext(context.Context) error { return errors.New("connection refused") }

func readyChecks(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body struct {
		Data HealthStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data.Checks
}

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler(downPinger{}, nil, time.Second)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_Ready(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tests := []struct {
		name           string
		db             Pinger
		redis          *redis.Client
		expectedStatus int
		expectedChecks map[string]string
	}{
		{
			name:           "all up",
			db:             okPinger{},
			redis:          client,
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]string{"database": "ok", "redis": "ok"},
		},
		{
			name:           "cache disabled",
			db:             okPinger{},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]string{"database": "ok", "redis": "disabled"},
		},
		{
			name:           "database down",
			db:             downPinger{},
			redis:          client,
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"database": "failed: connection refused", "redis": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.redis, time.Second)
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedChecks, readyChecks(t, rec))
		})
	}
}
