package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/pyrooka/mail2mp3/dto"
)

// ParseMessage turns raw RFC822 bytes into a normalized MailMessage.
// The body is the concatenation of all text parts in order, separated by
// newlines. A message with no valid sender address is rejected; one bad
// message must never take down the poller, so parser panics are converted
// to errors here.
func ParseMessage(raw []byte) (msg dto.MailMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while parsing message: %v", r)
		}
	}()

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return dto.MailMessage{}, errors.Wrap(err, "cannot parse message")
	}

	sender, err := extractSender(envelope)
	if err != nil {
		return dto.MailMessage{}, err
	}

	return dto.MailMessage{
		MessageID: strings.Trim(envelope.GetHeader("Message-Id"), "<>"),
		Sender:    sender,
		Subject:   envelope.GetHeader("Subject"),
		Body:      extractBody(envelope),
	}, nil
}

// extractSender prefers Return-Path over From, matching what the mail
// server actually accepted, and validates the address shape.
func extractSender(envelope *enmime.Envelope) (string, error) {
	for _, header := range []string{"Return-Path", "From"} {
		value := envelope.GetHeader(header)
		if value == "" {
			continue
		}

		address := stripAngleBrackets(value)
		validation := mailvalidate.ValidateEmailSyntax(address)
		if validation.IsValid {
			return validation.CleanEmail, nil
		}
	}

	return "", errors.New("message has no valid sender address")
}

func extractBody(envelope *enmime.Envelope) string {
	var parts []string

	if text := strings.TrimSpace(envelope.Text); text != "" {
		parts = append(parts, envelope.Text)
	}
	if html := strings.TrimSpace(envelope.HTML); html != "" {
		parts = append(parts, envelope.HTML)
	}

	return strings.Join(parts, "\n")
}

func stripAngleBrackets(value string) string {
	value = strings.TrimSpace(value)
	if start := strings.LastIndex(value, "<"); start != -1 {
		if end := strings.LastIndex(value, ">"); end > start {
			return value[start+1 : end]
		}
	}
	return value
}
