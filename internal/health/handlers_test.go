package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/annapurna-pos/backend-billing/internal/health"
)

type stubChecker struct {
	dbErr     error
	redisSkip bool
	redisErr  error
}

func (s stubChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	return s.dbErr
}

func (s stubChecker) PingRedis(ctx context.Context, timeout time.Duration) (bool, error) {
	return s.redisSkip, s.redisErr
}

func ready(t *testing.T, checker health.Checker) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	h := health.Handler{Checker: checker}
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var status map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec, status
}

func TestReadyAllHealthy(t *testing.T) {
	rec, status := ready(t, stubChecker{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", status["db"])
	require.Equal(t, "ok", status["redis"])
}

func TestReadyRedisOptional(t *testing.T) {
	rec, status := ready(t, stubChecker{redisSkip: true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "skipped", status["redis"])
}

func TestReadyDBDown(t *testing.T) {
	rec, status := ready(t, stubChecker{dbErr: errors.New("connection refused")})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "connection refused", status["db"])
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	health.Handler{}.Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
