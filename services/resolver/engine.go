package resolver

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/pyrooka/mail2mp3/dto"
	er "github.com/pyrooka/mail2mp3/internal/errors"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/internal/tracing"
)

// Engine composes the pattern resolver and the Shazam lookup into a
// cheap-first fallback chain: subject, then body, then the network hop.
type Engine struct {
	shazam *ShazamResolver
	log    logger.Logger
}

func NewEngine(shazam *ShazamResolver, log logger.Logger) *Engine {
	return &Engine{
		shazam: shazam,
		log:    log,
	}
}

// Resolve applies the strategies in order and stops at the first success.
// An unresolvable message yields NotFound; that is a business outcome,
// not an error.
func (e *Engine) Resolve(ctx context.Context, message dto.MailMessage) dto.ResolutionResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Engine.Resolve")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if message.Subject != "" {
		if id, ok := FirstVideoID(message.Subject, true); ok {
			span.LogFields(tracingLog.String("matched", "subject"))
			return dto.ResolvedFromYouTube(id)
		}
	}

	if message.Body != "" {
		if id, ok := FirstVideoID(message.Body, true); ok {
			span.LogFields(tracingLog.String("matched", "body"))
			return dto.ResolvedFromYouTube(id)
		}

		id, err := e.shazam.Lookup(ctx, message.Body)
		if err == nil {
			span.LogFields(tracingLog.String("matched", "shazam"))
			return dto.ResolvedFromShazam(id)
		}
		if !errors.Is(err, er.ErrNoShareLink) {
			// A share link was present but the lookup chain broke; keep it
			// visible for operators.
			e.log.Warnf("Shazam lookup failed for mail from %s: %v", message.Sender, err)
		}
	}

	return dto.NotFound()
}
