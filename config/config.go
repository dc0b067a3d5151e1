package config

import (
	"time"
)

type AppConfig struct {
	APIPort     string `env:"MAIL2MP3_API_PORT" envDefault:"12223"`
	Workers     int    `env:"MAIL2MP3_WORKERS" envDefault:"0"` // 0 = number of CPUs
	QueueSize   int    `env:"MAIL2MP3_QUEUE_SIZE" envDefault:"1024"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type MailboxConfig struct {
	Username     string        `env:"MAIL2MP3_USER"`
	Password     string        `env:"MAIL2MP3_PASS"`
	Host         string        `env:"MAIL2MP3_HOST" envDefault:"imap.gmail.com"`
	Port         int           `env:"MAIL2MP3_PORT" envDefault:"0"` // 0 = protocol default
	SSL          bool          `env:"MAIL2MP3_SSL" envDefault:"true"`
	Folder       string        `env:"MAIL2MP3_FOLDER" envDefault:"INBOX"`
	PollInterval time.Duration `env:"MAIL2MP3_POLL_INTERVAL" envDefault:"10s"`
	FetchTimeout time.Duration `env:"MAIL2MP3_FETCH_TIMEOUT" envDefault:"60s"`
}

type ResolverConfig struct {
	ShazamDiscoveryURL string        `env:"MAIL2MP3_SHAZAM_DISCOVERY_URL" envDefault:"https://www.shazam.com/discovery/v4/en-US/HU/web/-/track/"`
	HTTPTimeout        time.Duration `env:"MAIL2MP3_SHAZAM_HTTP_TIMEOUT" envDefault:"10s"`
}

type DownloaderConfig struct {
	Binary          string        `env:"MAIL2MP3_YTDLP_BINARY" envDefault:"yt-dlp"`
	FFmpegLocation  string        `env:"MAIL2MP3_FFMPEG_LOCATION"`
	OutputRoot      string        `env:"MAIL2MP3_OUTPUT_DIR" envDefault:"output"`
	AudioFormat     string        `env:"MAIL2MP3_AUDIO_FORMAT" envDefault:"mp3"`
	AudioQuality    string        `env:"MAIL2MP3_AUDIO_QUALITY" envDefault:"320K"`
	DownloadTimeout time.Duration `env:"MAIL2MP3_DOWNLOAD_TIMEOUT" envDefault:"30m"`
}

// LedgerDatabaseConfig configures the optional processed-message ledger.
// The ledger is disabled when Host is empty.
type LedgerDatabaseConfig struct {
	Host          string `env:"MAIL2MP3_POSTGRES_HOST"`
	Port          string `env:"MAIL2MP3_POSTGRES_PORT" envDefault:"5432"`
	User          string `env:"MAIL2MP3_POSTGRES_USER"`
	DBName        string `env:"MAIL2MP3_POSTGRES_DB_NAME"`
	Password      string `env:"MAIL2MP3_POSTGRES_PASSWORD"`
	SSLMode       string `env:"MAIL2MP3_POSTGRES_SSL_MODE" envDefault:"disable"`
	RetentionDays int    `env:"MAIL2MP3_LEDGER_RETENTION_DAYS" envDefault:"365"`
}

func (c *LedgerDatabaseConfig) Enabled() bool {
	return c != nil && c.Host != ""
}
