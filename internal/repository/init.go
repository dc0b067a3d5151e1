package repository

import (
	"gorm.io/gorm"

	"github.com/pyrooka/mail2mp3/interfaces"
)

type Repositories struct {
	ProcessedMessageRepository interfaces.ProcessedMessageRepository
}

// InitRepositories wires the ledger repositories. db may be nil when the
// ledger is disabled; the returned struct is nil in that case.
func InitRepositories(db *gorm.DB) *Repositories {
	if db == nil {
		return nil
	}

	return &Repositories{
		ProcessedMessageRepository: NewProcessedMessageRepository(db),
	}
}
