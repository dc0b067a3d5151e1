package interfaces

import (
	"context"
	"time"
)

// PollerStatus is a snapshot of the mailbox poller state.
type PollerStatus struct {
	Connected       bool      `json:"connected"`
	LastPoll        time.Time `json:"lastPoll"`
	MessagesFetched uint64    `json:"messagesFetched"`
	MessagesSkipped uint64    `json:"messagesSkipped"`
	LastError       string    `json:"lastError,omitempty"`
}

// PollerService discovers unseen mailbox messages and feeds the pipeline.
type PollerService interface {
	Start(ctx context.Context) error
	Stop() error
	Status() PollerStatus
}
