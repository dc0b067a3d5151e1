package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/pyrooka/mail2mp3/internal/enum"
	"github.com/pyrooka/mail2mp3/internal/utils"
)

// ProcessedMessage is one ledger row per handled mailbox message. The
// Message-ID uniqueness is what gives the pipeline cross-restart dedup.
type ProcessedMessage struct {
	ID        string `gorm:"column:id;type:varchar(50);primaryKey"`
	MessageID string `gorm:"column:message_id;uniqueIndex;type:varchar(255);not null"`
	Sender    string `gorm:"column:sender;type:varchar(255);index"`
	Subject   string `gorm:"column:subject;type:varchar(1000)"`

	// Resolution
	VideoIDs pq.StringArray   `gorm:"column:video_ids;type:text[]"`
	Source   enum.ShareSource `gorm:"column:source;type:varchar(50);index"`
	Outcome  enum.JobOutcome  `gorm:"column:outcome;type:varchar(50);index"`
	Title    string           `gorm:"column:title;type:varchar(1000)"`

	ProcessedAt time.Time `gorm:"column:processed_at;type:timestamp;index"`

	// Standard timestamps
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (ProcessedMessage) TableName() string {
	return "processed_messages"
}

func (m *ProcessedMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("pmsg", 24)
	}
	if m.ProcessedAt.IsZero() {
		m.ProcessedAt = utils.Now()
	}
	return nil
}
