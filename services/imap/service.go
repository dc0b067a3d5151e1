package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/pyrooka/mail2mp3/config"
	"github.com/pyrooka/mail2mp3/dto"
	"github.com/pyrooka/mail2mp3/interfaces"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/internal/tracing"
	"github.com/pyrooka/mail2mp3/services/parser"
	"github.com/pyrooka/mail2mp3/services/pipeline"
)

const (
	defaultSSLPort   = 993
	defaultPlainPort = 143

	connectTimeout = 30 * time.Second
	searchTimeout  = 30 * time.Second
	logoutTimeout  = 5 * time.Second
)

// PollerService owns the IMAP connection exclusively: it searches for
// unseen messages on a fixed interval, fetches and parses each one, and
// enqueues the resulting jobs. Workers never touch the connection.
type PollerService struct {
	cfg    *config.MailboxConfig
	queue  *pipeline.Queue
	ledger interfaces.ProcessedMessageRepository // optional
	log    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	statusMutex sync.RWMutex
	status      interfaces.PollerStatus
}

func NewPollerService(cfg *config.MailboxConfig, queue *pipeline.Queue, ledger interfaces.ProcessedMessageRepository, log logger.Logger) interfaces.PollerService {
	return &PollerService{
		cfg:    cfg,
		queue:  queue,
		ledger: ledger,
		log:    log,
	}
}

// Start launches the polling loop with reconnection.
func (s *PollerService) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(s.ctx)

	return nil
}

// Stop gracefully shuts down the poller.
func (s *PollerService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Poller stopped gracefully")
	case <-time.After(10 * time.Second):
		s.log.Warn("Timeout waiting for poller to stop")
	}

	return nil
}

func (s *PollerService) Status() interfaces.PollerStatus {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.status
}

// run handles the mailbox with reconnection and backoff.
func (s *PollerService) run(ctx context.Context) {
	defer s.wg.Done()

	backoff := time.Second
	maxBackoff := 2 * time.Minute

	for {
		if ctx.Err() != nil {
			return
		}

		c, err := s.connect(ctx)
		if err != nil {
			s.log.Errorf("Cannot connect to %s: %v", s.cfg.Host, err)
			s.setConnectionStatus(false, err)

			select {
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * 1.5)
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			case <-ctx.Done():
				return
			}
			continue
		}

		backoff = time.Second
		s.setConnectionStatus(true, nil)
		s.log.Infof("Successfully connected to %s", s.cfg.Username)

		err = s.pollLoop(ctx, c)

		c.Timeout = logoutTimeout
		_ = c.Logout() // Ignore errors during teardown

		if ctx.Err() != nil {
			return
		}

		s.setConnectionStatus(false, err)
		s.log.Warnf("Mailbox connection lost, reconnecting: %v", err)
	}
}

// connect dials the server, logs in and selects the watched folder.
// Plaintext and TLS are genuinely distinct paths.
func (s *PollerService) connect(ctx context.Context) (*client.Client, error) {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	port := s.cfg.Port
	if port == 0 {
		if s.cfg.SSL {
			port = defaultSSLPort
		} else {
			port = defaultPlainPort
		}
	}
	serverAddr := fmt.Sprintf("%s:%d", s.cfg.Host, port)

	var c *client.Client
	var err error
	if s.cfg.SSL {
		tlsConfig := &tls.Config{ServerName: s.cfg.Host}
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}

	c.Timeout = connectTimeout
	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("login error: %w", err)
	}

	if _, err := c.Select(s.cfg.Folder, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("error selecting folder %s: %w", s.cfg.Folder, err)
	}
	c.Timeout = 0

	return c, nil
}

// pollLoop runs poll cycles until the connection breaks or ctx ends.
func (s *PollerService) pollLoop(ctx context.Context, c *client.Client) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	if err := s.pollCycle(ctx, c); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.pollCycle(ctx, c); err != nil {
				return err
			}
		}
	}
}

// pollCycle searches for unseen messages and feeds each one into the
// queue. A single malformed message is skipped, never fatal to the batch.
func (s *PollerService) pollCycle(ctx context.Context, c *client.Client) error {
	span, ctx := tracing.StartTracerSpan(ctx, "PollerService.pollCycle")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	criteria := goimap.NewSearchCriteria()
	criteria.WithoutFlags = []string{goimap.SeenFlag}

	c.Timeout = searchTimeout
	ids, err := c.Search(criteria)
	c.Timeout = 0
	if err != nil {
		err = fmt.Errorf("error searching for unseen messages: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	s.statusMutex.Lock()
	s.status.LastPoll = time.Now()
	s.statusMutex.Unlock()

	if len(ids) == 0 {
		s.log.Debug("No new email found")
		return nil
	}

	s.log.Infof("Found %d email(s)", len(ids))
	span.LogFields(tracingLog.Int("unseen_count", len(ids)))

	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := s.fetchMessage(c, id)
		if err != nil {
			// Fetch errors against a live connection are connectivity
			// problems; bail out and let the reconnect loop take over.
			if isConnectionError(err) {
				tracing.TraceErr(span, err)
				return err
			}
			s.log.Warnf("Skipping message %d: %v", id, err)
			continue
		}

		message, err := parser.ParseMessage(raw)
		if err != nil {
			s.log.Warnf("Skipping unparseable message %d: %v", id, err)
			s.countSkipped()
			continue
		}

		if s.alreadyProcessed(ctx, message.MessageID) {
			s.log.Infof("Skipping already processed message %s", message.MessageID)
			s.countSkipped()
			continue
		}

		if err := s.queue.Enqueue(ctx, dto.NewJob(message)); err != nil {
			return errors.Wrap(err, "cannot enqueue job")
		}
		s.countFetched()
	}

	return nil
}

// fetchMessage retrieves the full RFC822 body of one message. The fetch
// intentionally does not use PEEK: a fetched message is marked seen so
// the next cycle will not pick it up again.
func (s *PollerService) fetchMessage(c *client.Client, seqNum uint32) ([]byte, error) {
	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(seqNum)

	section := &goimap.BodySectionName{}
	items := []goimap.FetchItem{section.FetchItem()}

	messages := make(chan *goimap.Message, 1)
	done := make(chan error, 1)

	c.Timeout = s.cfg.FetchTimeout
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	var raw []byte
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		data, err := io.ReadAll(body)
		if err == nil {
			raw = data
		}
	}

	err := <-done
	c.Timeout = 0
	if err != nil {
		return nil, fmt.Errorf("error fetching message %d: %w", seqNum, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("message %d has no body", seqNum)
	}

	return raw, nil
}

func (s *PollerService) alreadyProcessed(ctx context.Context, messageID string) bool {
	if s.ledger == nil || messageID == "" {
		return false
	}

	exists, err := s.ledger.Exists(ctx, messageID)
	if err != nil {
		s.log.Warnf("Ledger lookup failed for %s: %v", messageID, err)
		return false
	}
	return exists
}

func (s *PollerService) setConnectionStatus(connected bool, err error) {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	s.status.Connected = connected
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
}

func (s *PollerService) countFetched() {
	s.statusMutex.Lock()
	s.status.MessagesFetched++
	s.statusMutex.Unlock()
}

func (s *PollerService) countSkipped() {
	s.statusMutex.Lock()
	s.status.MessagesSkipped++
	s.statusMutex.Unlock()
}

// isConnectionError checks if an error is related to connectivity
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	errorMsg := err.Error()
	return strings.Contains(errorMsg, "connection closed") ||
		strings.Contains(errorMsg, "i/o timeout") ||
		strings.Contains(errorMsg, "EOF") ||
		strings.Contains(errorMsg, "connection reset")
}
