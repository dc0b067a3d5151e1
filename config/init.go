package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	er "github.com/pyrooka/mail2mp3/internal/errors"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/internal/tracing"
)

type Config struct {
	AppConfig        *AppConfig
	Logger           *logger.Config
	Tracing          *tracing.JaegerConfig
	MailboxConfig    *MailboxConfig
	ResolverConfig   *ResolverConfig
	DownloaderConfig *DownloaderConfig
	LedgerConfig     *LedgerDatabaseConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:        &AppConfig{},
		Logger:           &logger.Config{},
		Tracing:          &tracing.JaegerConfig{},
		MailboxConfig:    &MailboxConfig{},
		ResolverConfig:   &ResolverConfig{},
		DownloaderConfig: &DownloaderConfig{},
		LedgerConfig:     &LedgerDatabaseConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks startup-fatal conditions. Mailbox credentials are
// presence-validated only.
func (c *Config) Validate() error {
	if c.MailboxConfig.Username == "" || c.MailboxConfig.Password == "" {
		return er.ErrMailCredentialsMissing
	}
	return nil
}
