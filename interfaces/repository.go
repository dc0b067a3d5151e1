package interfaces

import (
	"context"
	"time"

	"github.com/pyrooka/mail2mp3/internal/models"
)

type ProcessedMessageRepository interface {
	Exists(ctx context.Context, messageID string) (bool, error)
	Save(ctx context.Context, record *models.ProcessedMessage) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
