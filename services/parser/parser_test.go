package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainTextMessage = "Return-Path: <bounce@example.com>\r\n" +
	"From: Jane Doe <jane@example.com>\r\n" +
	"To: listener@example.com\r\n" +
	"Message-Id: <abc123@mail.example.com>\r\n" +
	"Subject: check this out\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"https://youtu.be/dQw4w9WgXcQ\r\n"

func TestParseMessagePlainText(t *testing.T) {
	msg, err := ParseMessage([]byte(plainTextMessage))
	require.NoError(t, err)

	assert.Equal(t, "abc123@mail.example.com", msg.MessageID)
	assert.Equal(t, "bounce@example.com", msg.Sender)
	assert.Equal(t, "check this out", msg.Subject)
	assert.Contains(t, msg.Body, "https://youtu.be/dQw4w9WgXcQ")
}

func TestParseMessageFallsBackToFrom(t *testing.T) {
	raw := "From: Jane Doe <jane@example.com>\r\n" +
		"Subject: hello\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	msg, err := ParseMessage([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", msg.Sender)
}

func TestParseMessageMultipart(t *testing.T) {
	raw := "From: <jane@example.com>\r\n" +
		"Subject: multipart mail\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"SEP\"\r\n" +
		"\r\n" +
		"--SEP\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain part https://shz.am/t42\r\n" +
		"--SEP\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html part</p>\r\n" +
		"--SEP--\r\n"

	msg, err := ParseMessage([]byte(raw))
	require.NoError(t, err)

	// Both text and HTML parts end up in the body, text first.
	assert.Contains(t, msg.Body, "plain part https://shz.am/t42")
	assert.Contains(t, msg.Body, "html part")
	assert.Less(t, strings.Index(msg.Body, "plain part"), strings.Index(msg.Body, "html part"))
}

func TestParseMessageNoValidSender(t *testing.T) {
	raw := "From: not-an-address\r\n" +
		"Subject: whatever\r\n" +
		"\r\n" +
		"body\r\n"

	_, err := ParseMessage([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sender")
}

func TestParseMessageGarbageInput(t *testing.T) {
	// Whatever enmime makes of it, the missing sender rejects it.
	_, err := ParseMessage([]byte("\x00\x01\x02 not a mail at all"))
	require.Error(t, err)
}
