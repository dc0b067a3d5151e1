package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/pyrooka/mail2mp3/interfaces"
	"github.com/pyrooka/mail2mp3/internal/models"
	"github.com/pyrooka/mail2mp3/internal/tracing"
)

type processedMessageRepository struct {
	db *gorm.DB
}

func NewProcessedMessageRepository(db *gorm.DB) interfaces.ProcessedMessageRepository {
	return &processedMessageRepository{db: db}
}

// Exists reports whether a message id is already recorded in the ledger.
func (r *processedMessageRepository) Exists(ctx context.Context, messageID string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "processedMessageRepository.Exists")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.ProcessedMessage{}).
		Where("message_id = ?", messageID).
		Count(&count)

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, fmt.Errorf("failed to check processed message: %w", result.Error)
	}

	return count > 0, nil
}

// Save records a processed message. Saving the same message id twice keeps
// the first record.
func (r *processedMessageRepository) Save(ctx context.Context, record *models.ProcessedMessage) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "processedMessageRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	result := r.db.WithContext(ctx).Create(record)
	if result.Error != nil {
		if result.Error == gorm.ErrDuplicatedKey {
			return nil
		}
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to save processed message: %w", result.Error)
	}

	return nil
}

// DeleteOlderThan prunes ledger rows processed before the cutoff.
func (r *processedMessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "processedMessageRepository.DeleteOlderThan")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	result := r.db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&models.ProcessedMessage{})

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, fmt.Errorf("failed to prune processed messages: %w", result.Error)
	}

	return result.RowsAffected, nil
}
