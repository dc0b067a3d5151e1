package interfaces

import (
	"context"

	"github.com/pyrooka/mail2mp3/dto"
)

// Resolver derives a video identifier from a mailbox message.
type Resolver interface {
	Resolve(ctx context.Context, message dto.MailMessage) dto.ResolutionResult
}
