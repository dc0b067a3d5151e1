package interfaces

import (
	"context"

	"github.com/pyrooka/mail2mp3/dto"
)

// OutcomePublisher emits job outcome notifications to interested consumers.
type OutcomePublisher interface {
	PublishJobOutcome(ctx context.Context, event dto.JobOutcomeEvent) error
	Close() error
}
