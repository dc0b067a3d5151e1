package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	er "github.com/pyrooka/mail2mp3/internal/errors"
)

func TestInitConfigRequiresCredentials(t *testing.T) {
	t.Setenv("MAIL2MP3_USER", "")
	t.Setenv("MAIL2MP3_PASS", "")

	_, err := InitConfig()
	assert.ErrorIs(t, err, er.ErrMailCredentialsMissing)
}

func TestInitConfigDefaults(t *testing.T) {
	t.Setenv("MAIL2MP3_USER", "someone@gmail.com")
	t.Setenv("MAIL2MP3_PASS", "app-password")

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "12223", cfg.AppConfig.APIPort)
	assert.Equal(t, 1024, cfg.AppConfig.QueueSize)
	assert.Equal(t, "imap.gmail.com", cfg.MailboxConfig.Host)
	assert.True(t, cfg.MailboxConfig.SSL)
	assert.Equal(t, "INBOX", cfg.MailboxConfig.Folder)
	assert.Equal(t, 10*time.Second, cfg.MailboxConfig.PollInterval)
	assert.Equal(t, "yt-dlp", cfg.DownloaderConfig.Binary)
	assert.Equal(t, "mp3", cfg.DownloaderConfig.AudioFormat)
	assert.Equal(t, "320K", cfg.DownloaderConfig.AudioQuality)
	assert.False(t, cfg.LedgerConfig.Enabled())
}

func TestLedgerConfigEnabled(t *testing.T) {
	t.Setenv("MAIL2MP3_USER", "someone@gmail.com")
	t.Setenv("MAIL2MP3_PASS", "app-password")
	t.Setenv("MAIL2MP3_POSTGRES_HOST", "localhost")

	cfg, err := InitConfig()
	require.NoError(t, err)
	assert.True(t, cfg.LedgerConfig.Enabled())
}
