package dto

import (
	"time"

	"github.com/pyrooka/mail2mp3/internal/utils"
)

// MailMessage is the normalized form of a fetched mailbox message.
// It is immutable once constructed and consumed exactly once by a worker.
type MailMessage struct {
	// MessageID is the server-assigned Message-ID header, used as the
	// idempotence key when the processed-message ledger is enabled.
	MessageID string
	Sender    string
	Subject   string
	Body      string
}

// Job wraps a MailMessage as it flows through the queue.
type Job struct {
	ID         string
	Message    MailMessage
	EnqueuedAt time.Time
}

func NewJob(message MailMessage) Job {
	return Job{
		ID:         utils.GenerateNanoIDWithPrefix("job", 12),
		Message:    message,
		EnqueuedAt: utils.Now(),
	}
}
