package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meetingscheduler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsController_GetStatistics(t *testing.T) {
	to := time.Date(2023, 4, 5, 12, 0, 0, 0, time.UTC)
	stats := &domain.Statistics{From: to.Add(-time.Hour), To: to, EventsCreated: 2, VotesCast: 7}

	t.Run("ok", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewStatisticsController(testLogger, &fakeStatisticsService{stats: stats}).
			GetStatistics(rr, request(http.MethodGet, "/statistics", "", guestID, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got domain.Statistics
		require.NoError(t, json.Unmarshal(decode(t, rr).Data, &got))
		assert.Equal(t, 2, got.EventsCreated)
		assert.Equal(t, 7, got.VotesCast)
		assert.True(t, got.To.Equal(to))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewStatisticsController(testLogger, &fakeStatisticsService{stats: stats}).
			GetStatistics(rr, request(http.MethodGet, "/statistics", "", "", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewStatisticsController(testLogger, &fakeStatisticsService{err: errors.New("db down")}).
			GetStatistics(rr, request(http.MethodGet, "/statistics", "", guestID, nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHealthController_Health(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantStatus int
		want       HealthResponse
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ok", Checks: map[string]string{}},
		},
		{
			name:       "all up",
			checks:     map[string]Pinger{"postgres": up, "redis": up},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ok", Checks: map[string]string{"postgres": "up", "redis": "up"}},
		},
		{
			name:       "redis down",
			checks:     map[string]Pinger{"postgres": up, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: "degraded", Checks: map[string]string{"postgres": "up", "redis": "down"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			NewHealthController(testLogger, tt.checks).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			var got HealthResponse
			require.NoError(t, json.Unmarshal(decode(t, rr).Data, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
