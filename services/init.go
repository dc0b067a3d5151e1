package services

import (
	"github.com/pyrooka/mail2mp3/config"
	"github.com/pyrooka/mail2mp3/interfaces"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/internal/repository"
	"github.com/pyrooka/mail2mp3/services/downloader"
	"github.com/pyrooka/mail2mp3/services/events"
	"github.com/pyrooka/mail2mp3/services/imap"
	"github.com/pyrooka/mail2mp3/services/pipeline"
	"github.com/pyrooka/mail2mp3/services/resolver"
)

type Services struct {
	Queue            *pipeline.Queue
	WorkerPool       *pipeline.WorkerPool
	PollerService    interfaces.PollerService
	ResolverEngine   interfaces.Resolver
	DownloaderClient interfaces.Downloader
	EventsPublisher  interfaces.OutcomePublisher
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	// events (optional)
	var publisher interfaces.OutcomePublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log)
		if err != nil {
			return nil, err
		}
		publisher = rabbitPublisher
	}

	var ledger interfaces.ProcessedMessageRepository
	if repos != nil {
		ledger = repos.ProcessedMessageRepository
	}

	engine := resolver.NewEngine(resolver.NewShazamResolver(cfg.ResolverConfig), log)
	ytdlp := downloader.NewCLI(cfg.DownloaderConfig)

	queue := pipeline.NewQueue(cfg.AppConfig.QueueSize)
	pool := pipeline.NewWorkerPool(queue, engine, ytdlp, log, pipeline.WorkerPoolOptions{
		Size:            cfg.AppConfig.Workers,
		OutputRoot:      cfg.DownloaderConfig.OutputRoot,
		DownloadTimeout: cfg.DownloaderConfig.DownloadTimeout,
		Ledger:          ledger,
		Publisher:       publisher,
	})

	services := Services{
		Queue:            queue,
		WorkerPool:       pool,
		PollerService:    imap.NewPollerService(cfg.MailboxConfig, queue, ledger, log),
		ResolverEngine:   engine,
		DownloaderClient: ytdlp,
		EventsPublisher:  publisher,
	}

	return &services, nil
}
