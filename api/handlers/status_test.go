package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrooka/mail2mp3/interfaces"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/services/pipeline"
)

type stubPoller struct {
	status interfaces.PollerStatus
}

func (s *stubPoller) Start(ctx context.Context) error { return nil }
func (s *stubPoller) Stop() error                     { return nil }
func (s *stubPoller) Status() interfaces.PollerStatus { return s.status }

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", HealthCheck)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	log := logger.NewAppLogger(&logger.Config{DevMode: true, LogLevel: "error"})
	log.InitLogger()

	queue := pipeline.NewQueue(4)
	pool := pipeline.NewWorkerPool(queue, nil, nil, log, pipeline.WorkerPoolOptions{Size: 2})
	poller := &stubPoller{status: interfaces.PollerStatus{Connected: true, MessagesFetched: 7}}

	router := gin.New()
	router.GET("/status", Status(poller, pool))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Poller interfaces.PollerStatus `json:"poller"`
		Pool   pipeline.PoolStatus     `json:"pool"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Poller.Connected)
	assert.Equal(t, uint64(7), body.Poller.MessagesFetched)
	assert.Equal(t, 2, body.Pool.Workers)
}
