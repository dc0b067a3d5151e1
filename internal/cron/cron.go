package cron

import (
	"context"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/pyrooka/mail2mp3/config"
	"github.com/pyrooka/mail2mp3/interfaces"
	cron_config "github.com/pyrooka/mail2mp3/internal/cron/config"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/internal/tracing"
	"github.com/pyrooka/mail2mp3/services/pipeline"
)

const (
	// GroupMaintenance is the group for maintenance jobs
	GroupMaintenance = "maintenance"
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupMaintenance: new(sync.Mutex),
	},
}

// CronManager schedules the background maintenance jobs: a heartbeat
// status log and, when the ledger is enabled, daily pruning.
type CronManager struct {
	cfg    *config.Config
	log    logger.Logger
	cron   *cronv3.Cron
	jobIDs map[string]cronv3.EntryID
	poller interfaces.PollerService
	pool   *pipeline.WorkerPool
	ledger interfaces.ProcessedMessageRepository // optional
}

func NewCronManager(cfg *config.Config, log logger.Logger, poller interfaces.PollerService, pool *pipeline.WorkerPool, ledger interfaces.ProcessedMessageRepository) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		jobIDs: make(map[string]cronv3.EntryID),
		poller: poller,
		pool:   pool,
		ledger: ledger,
	}
}

// Start registers and starts the cron jobs.
func (cm *CronManager) Start() {
	cronConfig := cron_config.Config{}
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Errorf("Error loading cron config: %v", err)
		return
	}

	cm.cron = cronv3.New(cronv3.WithSeconds())

	id, err := cm.cron.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
		cm.runWithLock(GroupMaintenance, cm.heartbeat)
	})
	if err != nil {
		cm.log.Errorf("Cannot schedule heartbeat job: %v", err)
	} else {
		cm.jobIDs["heartbeat"] = id
	}

	if cm.ledger != nil {
		id, err = cm.cron.AddFunc(cronConfig.CronScheduleLedgerPrune, func() {
			cm.runWithLock(GroupMaintenance, cm.pruneLedger)
		})
		if err != nil {
			cm.log.Errorf("Cannot schedule ledger prune job: %v", err)
		} else {
			cm.jobIDs["ledger_prune"] = id
		}
	}

	cm.cron.Start()
	cm.log.Infof("Cron manager started with %d job(s)", len(cm.jobIDs))
}

// Stop stops the cron scheduler and waits for running jobs.
func (cm *CronManager) Stop() {
	if cm.cron == nil {
		return
	}

	stopCtx := cm.cron.Stop()
	select {
	case <-stopCtx.Done():
		cm.log.Info("Cron jobs stopped gracefully")
	case <-time.After(30 * time.Second):
		cm.log.Warn("Timeout waiting for cron jobs to stop")
	}
}

func (cm *CronManager) runWithLock(group string, job func(ctx context.Context)) {
	jobLocks.Lock()
	lock, exists := jobLocks.locks[group]
	if !exists {
		lock = new(sync.Mutex)
		jobLocks.locks[group] = lock
	}
	jobLocks.Unlock()

	lock.Lock()
	defer lock.Unlock()

	defer tracing.RecoverAndLogToJaeger(cm.log)
	job(context.Background())
}

func (cm *CronManager) heartbeat(ctx context.Context) {
	poolStatus := cm.pool.Status()
	pollerStatus := cm.poller.Status()

	cm.log.Infof(
		"Heartbeat: connected=%t queued=%d dispatched=%d dropped=%d failed=%d fetched=%d",
		pollerStatus.Connected,
		poolStatus.Queued,
		poolStatus.Dispatched,
		poolStatus.Dropped,
		poolStatus.Failed,
		pollerStatus.MessagesFetched,
	)
}

func (cm *CronManager) pruneLedger(ctx context.Context) {
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.pruneLedger")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	retentionDays := cm.cfg.LedgerConfig.RetentionDays
	if retentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := cm.ledger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Ledger prune failed: %v", err)
		return
	}

	if deleted > 0 {
		cm.log.Infof("Pruned %d ledger row(s) older than %s", deleted, cutoff.Format(time.RFC3339))
	}
}
