package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Check(t *testing.T) {
	t.Run("no checks is healthy", func(t *testing.T) {
		status := NewHealthChecker("v1").Check(context.Background())
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, "v1", status.Version)
	})

	t.Run("optional failure degrades", func(t *testing.T) {
		h := NewHealthChecker("v1")
		h.AddCheck("store", true, func(context.Context) error { return nil })
		h.AddCheck("cache", false, func(context.Context) error { return errors.New("down") })

		status := h.Check(context.Background())
		assert.Equal(t, StatusDegraded, status.Status)
		assert.Equal(t, StatusDegraded, status.Dependencies["cache"].Status)
		assert.Equal(t, "down", status.Dependencies["cache"].Message)
	})

	t.Run("critical failure is unhealthy", func(t *testing.T) {
		h := NewHealthChecker("v1")
		h.AddCheck("cache", false, func(context.Context) error { return errors.New("down") })
		h.AddCheck("store", true, func(context.Context) error { return errors.New("gone") })

		assert.Equal(t, StatusUnhealthy, h.Check(context.Background()).Status)
	})
}

func TestSQLCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	assert.NoError(t, SQLCheck(db)(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("no route"))
	assert.Error(t, SQLCheck(db)(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCheck(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	assert.NoError(t, RedisCheck(client)(context.Background()))

	mr.Close()
	assert.Error(t, RedisCheck(client)(context.Background()))
}

func TestReadiness(t *testing.T) {
	h := NewHealthChecker("v1")
	h.AddCheck("store", true, func(context.Context) error { return errors.New("gone") })

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, StatusUnhealthy, status.Status)

	rec = httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
