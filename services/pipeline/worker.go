package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/pyrooka/mail2mp3/dto"
	"github.com/pyrooka/mail2mp3/interfaces"
	"github.com/pyrooka/mail2mp3/internal/enum"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/internal/models"
	"github.com/pyrooka/mail2mp3/internal/tracing"
	"github.com/pyrooka/mail2mp3/internal/utils"
)

// PoolStatus is a snapshot of the worker pool counters.
type PoolStatus struct {
	Workers    int    `json:"workers"`
	Queued     int    `json:"queued"`
	Dispatched uint64 `json:"dispatched"`
	Dropped    uint64 `json:"dropped"`
	Failed     uint64 `json:"failed"`
}

// WorkerPool runs a fixed set of workers over the shared queue. Workers
// share nothing but the queue; every job is processed in isolation so one
// bad message can never kill a worker.
type WorkerPool struct {
	queue           *Queue
	resolver        interfaces.Resolver
	downloader      interfaces.Downloader
	ledger          interfaces.ProcessedMessageRepository // optional
	publisher       interfaces.OutcomePublisher           // optional
	log             logger.Logger
	outputRoot      string
	downloadTimeout time.Duration
	size            int

	wg     sync.WaitGroup
	cancel context.CancelFunc

	dispatched atomic.Uint64
	dropped    atomic.Uint64
	failed     atomic.Uint64
}

type WorkerPoolOptions struct {
	Size            int // 0 = number of CPUs
	OutputRoot      string
	DownloadTimeout time.Duration
	Ledger          interfaces.ProcessedMessageRepository
	Publisher       interfaces.OutcomePublisher
}

func NewWorkerPool(queue *Queue, resolver interfaces.Resolver, downloader interfaces.Downloader, log logger.Logger, opts WorkerPoolOptions) *WorkerPool {
	size := opts.Size
	if size <= 0 {
		size = runtime.NumCPU()
	}
	outputRoot := opts.OutputRoot
	if outputRoot == "" {
		outputRoot = "output"
	}
	downloadTimeout := opts.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = 30 * time.Minute
	}

	return &WorkerPool{
		queue:           queue,
		resolver:        resolver,
		downloader:      downloader,
		ledger:          opts.Ledger,
		publisher:       opts.Publisher,
		log:             log,
		outputRoot:      outputRoot,
		downloadTimeout: downloadTimeout,
		size:            size,
	}
}

// Start launches the workers. They run until the context is cancelled or
// the queue is closed and drained.
func (p *WorkerPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.log.Infof("Starting %d workers", p.size)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

// Stop waits for in-flight jobs to finish, up to a timeout. When the
// queue has been closed first, the workers are left to drain what is
// already buffered before their context is cancelled.
func (p *WorkerPool) Stop() {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	if !p.queue.Closed() && p.cancel != nil {
		p.cancel()
	}

	select {
	case <-done:
		p.log.Info("All workers stopped gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn("Timeout waiting for workers to stop")
	}

	if p.cancel != nil {
		p.cancel()
	}
}

func (p *WorkerPool) Status() PoolStatus {
	return PoolStatus{
		Workers:    p.size,
		Queued:     p.queue.Len(),
		Dispatched: p.dispatched.Load(),
		Dropped:    p.dropped.Load(),
		Failed:     p.failed.Load(),
	}
}

func (p *WorkerPool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		job, ok := p.queue.Dequeue(ctx)
		if !ok {
			if p.queue.Closed() {
				if p.queue.Len() == 0 {
					return
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			continue
		}

		p.processJob(ctx, id, job)
	}
}

// processJob runs one job to a terminal state. Panics are contained here:
// they count as a failed job, nothing more.
func (p *WorkerPool) processJob(ctx context.Context, workerID int, job dto.Job) {
	span, ctx := tracing.StartTracerSpan(ctx, "WorkerPool.processJob")
	defer span.Finish()
	tracing.TagComponentWorker(span)
	tracing.TagEntity(span, job.ID)

	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			tracing.TraceErr(span, fmt.Errorf("panic: %v", r))
			p.log.Errorf("[worker %d] Panic while processing job %s: %v", workerID, job.ID, r)
		}
	}()

	message := job.Message
	result := p.resolver.Resolve(ctx, message)
	span.LogFields(
		tracingLog.String("source", result.Source.String()),
		tracingLog.String("video_id", result.VideoID),
	)

	if !result.Found() {
		p.dropped.Add(1)
		p.log.Infof("Cannot parse mail from %s with subject %q", message.Sender, message.Subject)
		p.recordOutcome(ctx, job, result, enum.JobOutcomeDropped, "")
		return
	}

	outputDir := OutputDir(p.outputRoot, message.Sender, utils.Now())
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		p.failed.Add(1)
		tracing.TraceErr(span, err)
		p.log.Errorf("Cannot create output dir %s: %v", outputDir, err)
		p.recordOutcome(ctx, job, result, enum.JobOutcomeFailed, "")
		return
	}

	downloadCtx, cancel := context.WithTimeout(ctx, p.downloadTimeout)
	defer cancel()

	title, err := p.downloader.Download(downloadCtx, result.VideoID, outputDir)
	if err != nil {
		p.failed.Add(1)
		tracing.TraceErr(span, err)
		p.log.Errorf("Download failed for %s (mail from %s): %v", result.VideoID, message.Sender, err)
		p.recordOutcome(ctx, job, result, enum.JobOutcomeFailed, "")
		return
	}

	p.dispatched.Add(1)
	switch result.Source {
	case enum.ShareSourceShazam:
		p.log.Infof("Download finished. Shazam name: %q, YouTube name: %q", message.Subject, title)
	default:
		p.log.Infof("Download finished. YouTube name: %q", title)
	}
	p.recordOutcome(ctx, job, result, enum.JobOutcomeDispatched, title)
}

// recordOutcome persists the terminal state in the ledger and notifies the
// outcome publisher. Both collaborators are optional and best-effort.
func (p *WorkerPool) recordOutcome(ctx context.Context, job dto.Job, result dto.ResolutionResult, outcome enum.JobOutcome, title string) {
	if p.ledger != nil {
		record := &models.ProcessedMessage{
			MessageID: messageKey(job),
			Sender:    job.Message.Sender,
			Subject:   job.Message.Subject,
			Source:    result.Source,
			Outcome:   outcome,
			Title:     title,
		}
		if result.Found() {
			record.VideoIDs = pq.StringArray{result.VideoID}
		}
		if err := p.ledger.Save(ctx, record); err != nil {
			p.log.Warnf("Cannot record job %s in ledger: %v", job.ID, err)
		}
	}

	if p.publisher != nil {
		event := dto.JobOutcomeEvent{
			JobID:     job.ID,
			Sender:    job.Message.Sender,
			Subject:   job.Message.Subject,
			VideoID:   result.VideoID,
			Source:    result.Source,
			Outcome:   outcome,
			Title:     title,
			Timestamp: utils.Now(),
		}
		if err := p.publisher.PublishJobOutcome(ctx, event); err != nil {
			p.log.Warnf("Cannot publish outcome for job %s: %v", job.ID, err)
		}
	}
}

// OutputDir builds the per-sender, per-month download directory:
// <root>/<sender-address>/<year>_<month>.
func OutputDir(root, sender string, now time.Time) string {
	return filepath.Join(root, sender, fmt.Sprintf("%d_%d", now.Year(), int(now.Month())))
}

// messageKey prefers the server-assigned Message-ID so the ledger row
// survives restarts; jobs without one fall back to the job id.
func messageKey(job dto.Job) string {
	if job.Message.MessageID != "" {
		return job.Message.MessageID
	}
	return job.ID
}
