package cron

import (
	"context"
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"

	"github.com/pyrooka/mail2mp3/config"
	"github.com/pyrooka/mail2mp3/interfaces"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/services/pipeline"
)

type stubPoller struct{}

func (s *stubPoller) Start(ctx context.Context) error { return nil }
func (s *stubPoller) Stop() error                     { return nil }
func (s *stubPoller) Status() interfaces.PollerStatus { return interfaces.PollerStatus{} }

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func testConfig() *config.Config {
	return &config.Config{
		AppConfig:    &config.AppConfig{},
		LedgerConfig: &config.LedgerDatabaseConfig{},
	}
}

func testPool(log logger.Logger) *pipeline.WorkerPool {
	return pipeline.NewWorkerPool(pipeline.NewQueue(1), nil, nil, log, pipeline.WorkerPoolOptions{Size: 1})
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := testConfig()
	log := getLogger()
	poller := &stubPoller{}
	pool := testPool(log)

	// Act
	cm := NewCronManager(cfg, log, poller, pool, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_StartRegistersHeartbeat(t *testing.T) {
	t.Setenv("CRON_SCHEDULE_HEARTBEAT", "0 * * * * *")
	t.Setenv("CRON_SCHEDULE_LEDGER_PRUNE", "0 0 0 * * *")

	// Arrange
	log := getLogger()
	cm := NewCronManager(testConfig(), log, &stubPoller{}, testPool(log), nil)

	// Act
	cm.Start()
	defer cm.Stop()

	// Assert: no ledger means only the heartbeat job is scheduled
	assert.NotNil(t, cm.cron)
	assert.Equal(t, 1, len(cm.jobIDs))
	assert.Contains(t, cm.jobIDs, "heartbeat")
}

func TestCronManager_Stop(t *testing.T) {
	// Arrange
	log := getLogger()
	cm := NewCronManager(testConfig(), log, &stubPoller{}, testPool(log), nil)

	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	// Act: must return promptly with no running jobs
	cm.Stop()
}

func TestCronManager_StopWithoutStart(t *testing.T) {
	log := getLogger()
	cm := NewCronManager(testConfig(), log, &stubPoller{}, testPool(log), nil)

	// Stop before Start must not panic
	cm.Stop()
}
