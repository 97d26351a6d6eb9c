package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"heartgram/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestReadinessCheck(t *testing.T) {
	down := stubPinger{err: errors.New("connection refused")}
	up := stubPinger{}

	tests := []struct {
		name       string
		db, cache  Pinger
		storage    Pinger
		wantStatus int
		wantState  string
		wantRedis  string
	}{
		{name: "all healthy", db: up, cache: up, storage: up, wantStatus: http.StatusOK, wantState: "ready", wantRedis: "healthy"},
		{name: "database down", db: down, cache: up, storage: up, wantStatus: http.StatusServiceUnavailable, wantState: "not_ready", wantRedis: "healthy"},
		{name: "cache down", db: up, cache: down, storage: up, wantStatus: http.StatusOK, wantState: "degraded", wantRedis: "unhealthy"},
		{name: "cache disabled", db: up, cache: nil, storage: nil, wantStatus: http.StatusOK, wantState: "ready", wantRedis: "disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandlers(tt.db, tt.cache, tt.storage)
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			require.NoError(t, h.ReadinessCheck(c))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantState, body["status"])
			assert.Equal(t, tt.wantRedis, body["services"].(map[string]interface{})["redis"])
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	h := NewHealthHandlers(stubPinger{}, nil, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	require.NoError(t, h.LivenessCheck(c))
	assert.Equal(t, "alive", decodeBody(t, rec)["status"])
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(logger.Nop())
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("unexpected")
	})
	e.GET("/gone", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request Entity Too Large")
	})

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
	}{
		{path: "/missing", wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{path: "/boom", wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
		{path: "/gone", wantStatus: http.StatusRequestEntityTooLarge, wantCode: "PAYLOAD_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
}
