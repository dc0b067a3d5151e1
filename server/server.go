package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"gorm.io/gorm"

	"github.com/pyrooka/mail2mp3/api"
	"github.com/pyrooka/mail2mp3/config"
	"github.com/pyrooka/mail2mp3/interfaces"
	"github.com/pyrooka/mail2mp3/internal/cron"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/internal/repository"
	"github.com/pyrooka/mail2mp3/internal/tracing"
	"github.com/pyrooka/mail2mp3/services"
)

type Server struct {
	config       *config.Config
	log          logger.Logger
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	repositories *repository.Repositories
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config, ledgerDB *gorm.DB) (*Server, error) {
	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	opentracing.SetGlobalTracer(tracer)

	// Initialize repositories (nil when the ledger is disabled)
	repos := repository.InitRepositories(ledgerDB)

	// Initialize services
	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return nil, err
	}

	var ledger interfaces.ProcessedMessageRepository
	if repos != nil {
		ledger = repos.ProcessedMessageRepository
	}
	cronManager := cron.NewCronManager(cfg, appLogger, svcs.PollerService, svcs.WorkerPool, ledger)

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	return &Server{
		config:       cfg,
		log:          appLogger,
		router:       router,
		services:     svcs,
		repositories: repos,
		cronManager:  cronManager,
		tracerCloser: closer,
		httpServer: &http.Server{
			Addr:    ":" + cfg.AppConfig.APIPort,
			Handler: router,
		},
	}, nil
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		// Create a new span for the panic
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		// Mark span as failed
		ext.Error.Set(span, true)

		// Log panic details
		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		s.log.Errorf("Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	// Root context for the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup API routes
	api.RegisterRoutes(s.router, s.services)

	// Start the worker pool before the poller so jobs never pile up unserved
	s.log.Info("Starting worker pool...")
	s.services.WorkerPool.Start(ctx)

	s.log.Info("Starting mailbox poller...")
	if err := s.services.PollerService.Start(ctx); err != nil {
		return err
	}

	s.cronManager.Start()

	// Start HTTP server in a goroutine with panic recovery
	go s.wrapGoroutine("http_server", func() {
		s.log.Infof("Starting HTTP server on port %s", s.config.AppConfig.APIPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("HTTP server error: %v", err)
		}
	})
	s.log.Info("mail2mp3 is now running. Press Ctrl+C to exit.")

	return s.waitForShutdown()
}

func (s *Server) waitForShutdown() error {
	defer s.recoverWithJaeger("shutdown")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	s.log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Stop accepting HTTP requests first
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("HTTP server shutdown error: %v", err)
	}

	s.cronManager.Stop()

	// Stop the poller so nothing new lands in the queue
	if err := s.services.PollerService.Stop(); err != nil {
		s.log.Errorf("Poller shutdown error: %v", err)
	}

	// Close the queue and let the workers drain what is already buffered
	s.services.Queue.Close()
	s.services.WorkerPool.Stop()

	if s.services.EventsPublisher != nil {
		if err := s.services.EventsPublisher.Close(); err != nil {
			s.log.Errorf("Events publisher close error: %v", err)
		}
	}

	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}

	s.log.Info("Shutdown complete")
	return nil
}
